package readiness

import (
	"context"
	"fmt"
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
)

// DeploymentChecker treats a Kubernetes Deployment as the readiness source.
//
// A deployment is ready when the controller has observed the latest generation
// and both updated and ready replicas reach the desired count. API errors and
// partial rollouts are both plain failures for the poller.
type DeploymentChecker struct {
	Client    kubernetes.Interface
	Namespace string
	Name      string
}

// ParseDeploymentRef splits "namespace/name". A bare name lands in "default".
func ParseDeploymentRef(ref string) (namespace, name string, err error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", "", fmt.Errorf("deployment reference is empty")
	}
	parts := strings.Split(ref, "/")
	switch len(parts) {
	case 1:
		return "default", parts[0], nil
	case 2:
		if parts[0] == "" || parts[1] == "" {
			return "", "", fmt.Errorf("invalid deployment reference '%s'; expected namespace/name", ref)
		}
		return parts[0], parts[1], nil
	default:
		return "", "", fmt.Errorf("invalid deployment reference '%s'; expected namespace/name", ref)
	}
}

// NewDeploymentChecker builds a clientset from kubeconfig (or the default
// loading rules / in-cluster config when empty) for the given deployment ref.
func NewDeploymentChecker(kubeconfig, ref string) (*DeploymentChecker, error) {
	namespace, name, err := ParseDeploymentRef(ref)
	if err != nil {
		return nil, err
	}

	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfig != "" {
		rules.ExplicitPath = kubeconfig
	}
	restConfig, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{}).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load kubernetes config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	return &DeploymentChecker{Client: clientset, Namespace: namespace, Name: name}, nil
}

// Check reads the deployment once and compares ready replicas with the desired count.
func (c *DeploymentChecker) Check(ctx context.Context) error {
	deploy, err := c.Client.AppsV1().Deployments(c.Namespace).Get(ctx, c.Name, metav1.GetOptions{})
	if err != nil {
		return fmt.Errorf("failed to get deployment %s/%s: %w", c.Namespace, c.Name, err)
	}

	desired := int32(1)
	if deploy.Spec.Replicas != nil {
		desired = *deploy.Spec.Replicas
	}

	if deploy.Status.ObservedGeneration < deploy.Generation {
		return fmt.Errorf("%w: deployment %s/%s generation %d not observed yet",
			ErrNotReady, c.Namespace, c.Name, deploy.Generation)
	}
	if deploy.Status.UpdatedReplicas < desired || deploy.Status.ReadyReplicas < desired {
		return fmt.Errorf("%w: deployment %s/%s has %d/%d ready replicas",
			ErrNotReady, c.Namespace, c.Name, deploy.Status.ReadyReplicas, desired)
	}
	return nil
}
