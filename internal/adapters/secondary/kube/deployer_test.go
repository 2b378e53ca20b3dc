package kube

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic/fake"

	"vehicle-insurance-mlops/internal/config"
	"vehicle-insurance-mlops/internal/core/domain"
)

func newDeployment(namespace, name string) *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "apps/v1",
		"kind":       "Deployment",
		"metadata": map[string]interface{}{
			"name":      name,
			"namespace": namespace,
		},
		"spec": map[string]interface{}{
			"replicas": int64(2),
			"template": map[string]interface{}{
				"metadata": map[string]interface{}{
					"labels": map[string]interface{}{"app": name},
				},
			},
		},
	}}
}

func newFakeClient(objs ...runtime.Object) *fake.FakeDynamicClient {
	return fake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(),
		map[schema.GroupVersionResource]string{deploymentGVR: "DeploymentList"}, objs...)
}

func TestDeployer_Restart(t *testing.T) {
	client := newFakeClient(newDeployment("model-serving", "vehicle-insurance-api"))
	d := NewDeployerWithClient(client, "model-serving", "vehicle-insurance-api").(*deployer)
	d.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	require.True(t, d.IsAvailable())
	require.NoError(t, d.Restart(context.Background()))

	obj, err := client.Resource(deploymentGVR).Namespace("model-serving").
		Get(context.Background(), "vehicle-insurance-api", metav1.GetOptions{})
	require.NoError(t, err)

	annotations, found, err := unstructured.NestedStringMap(obj.Object, "spec", "template", "metadata", "annotations")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "2026-03-01T12:00:00Z", annotations[RestartedAtAnnotation])

	labels, _, _ := unstructured.NestedStringMap(obj.Object, "spec", "template", "metadata", "labels")
	assert.Equal(t, "vehicle-insurance-api", labels["app"])
	replicas, _, _ := unstructured.NestedInt64(obj.Object, "spec", "replicas")
	assert.Equal(t, int64(2), replicas)
}

func TestDeployer_Restart_MissingDeployment(t *testing.T) {
	d := NewDeployerWithClient(newFakeClient(), "", "vehicle-insurance-api")

	err := d.Restart(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default/vehicle-insurance-api")
}

func TestDeployer_Disabled(t *testing.T) {
	d, err := NewDeployer(&config.KubernetesConfig{Enabled: false})
	require.NoError(t, err)

	assert.False(t, d.IsAvailable())
	assert.ErrorIs(t, d.Restart(context.Background()), domain.ErrDeployerDisabled)

	unnamed := NewDeployerWithClient(newFakeClient(), "ns", "")
	assert.False(t, unnamed.IsAvailable())
}
