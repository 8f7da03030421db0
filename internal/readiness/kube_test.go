package readiness

import (
	"context"
	"testing"

	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func deployment(generation, observed int64, replicas *int32, updated, ready int32) *appsv1.Deployment {
	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:       "wanderly-web",
			Namespace:  "wanderly",
			Generation: generation,
		},
		Spec: appsv1.DeploymentSpec{Replicas: replicas},
		Status: appsv1.DeploymentStatus{
			ObservedGeneration: observed,
			UpdatedReplicas:    updated,
			ReadyReplicas:      ready,
		},
	}
}

func int32Ptr(v int32) *int32 { return &v }

func TestDeploymentChecker_Check(t *testing.T) {
	tests := []struct {
		name         string
		deploy       *appsv1.Deployment
		wantErr      bool
		wantNotReady bool
	}{
		{
			name:   "All Replicas Ready",
			deploy: deployment(3, 3, int32Ptr(2), 2, 2),
		},
		{
			name:   "Replicas Unset Defaults To One",
			deploy: deployment(1, 1, nil, 1, 1),
		},
		{
			name:         "Rollout Not Observed",
			deploy:       deployment(4, 3, int32Ptr(2), 2, 2),
			wantErr:      true,
			wantNotReady: true,
		},
		{
			name:         "Partially Ready",
			deploy:       deployment(2, 2, int32Ptr(3), 3, 1),
			wantErr:      true,
			wantNotReady: true,
		},
		{
			name:         "Old Replicas Still Serving",
			deploy:       deployment(2, 2, int32Ptr(2), 1, 2),
			wantErr:      true,
			wantNotReady: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := &DeploymentChecker{
				Client:    fake.NewClientset(tt.deploy),
				Namespace: "wanderly",
				Name:      "wanderly-web",
			}

			err := checker.Check(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Check() error = %v, wantErr %v", err, tt.wantErr)
			}
			if IsNotReady(err) != tt.wantNotReady {
				t.Errorf("IsNotReady(%v) = %v, want %v", err, IsNotReady(err), tt.wantNotReady)
			}
		})
	}
}

func TestDeploymentChecker_Check_Missing(t *testing.T) {
	checker := &DeploymentChecker{
		Client:    fake.NewClientset(),
		Namespace: "wanderly",
		Name:      "absent",
	}
	err := checker.Check(context.Background())
	if err == nil {
		t.Fatal("Check() expected error for a missing deployment")
	}
	if IsNotReady(err) {
		t.Errorf("API errors are reported as transport failures, got %v", err)
	}
}

func TestParseDeploymentRef(t *testing.T) {
	tests := []struct {
		ref           string
		wantNamespace string
		wantName      string
		wantErr       bool
	}{
		{ref: "wanderly/web", wantNamespace: "wanderly", wantName: "web"},
		{ref: "web", wantNamespace: "default", wantName: "web"},
		{ref: " wanderly/web ", wantNamespace: "wanderly", wantName: "web"},
		{ref: "", wantErr: true},
		{ref: "/web", wantErr: true},
		{ref: "a/b/c", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			ns, name, err := ParseDeploymentRef(tt.ref)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDeploymentRef() error = %v, wantErr %v", err, tt.wantErr)
			}
			if ns != tt.wantNamespace || name != tt.wantName {
				t.Errorf("ParseDeploymentRef() = %s/%s, want %s/%s", ns, name, tt.wantNamespace, tt.wantName)
			}
		})
	}
}
