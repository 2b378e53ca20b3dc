package kube

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"vehicle-insurance-mlops/internal/config"
	"vehicle-insurance-mlops/internal/core/domain"
	output "vehicle-insurance-mlops/internal/core/ports/output"
)

// RestartedAtAnnotation is the pod template annotation kubectl sets on
// `rollout restart`; changing it rolls every replica.
const RestartedAtAnnotation = "kubectl.kubernetes.io/restartedAt"

var deploymentGVR = schema.GroupVersionResource{
	Group:    "apps",
	Version:  "v1",
	Resource: "deployments",
}

type deployer struct {
	client     dynamic.Interface
	enabled    bool
	namespace  string
	deployment string
	now        func() time.Time
}

// NewDeployer creates a Deployer that rolls the prediction service deployment
func NewDeployer(cfg *config.KubernetesConfig) (output.Deployer, error) {
	if !cfg.Enabled {
		return &deployer{enabled: false}, nil
	}

	var restCfg *rest.Config
	var err error

	if cfg.InCluster {
		restCfg, err = rest.InClusterConfig()
	} else if cfg.KubeConfigPath != "" {
		restCfg, err = clientcmd.BuildConfigFromFlags("", cfg.KubeConfigPath)
	} else {
		// Try default kubeconfig location
		home, _ := os.UserHomeDir()
		kubeconfig := filepath.Join(home, ".kube", "config")
		restCfg, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	}
	if err != nil {
		return nil, fmt.Errorf("build k8s config: %w", err)
	}

	client, err := dynamic.NewForConfig(restCfg)
	if err != nil {
		return nil, fmt.Errorf("create dynamic client: %w", err)
	}

	return NewDeployerWithClient(client, cfg.Namespace, cfg.Deployment), nil
}

// NewDeployerWithClient wires an existing dynamic client.
func NewDeployerWithClient(client dynamic.Interface, namespace, deploymentName string) output.Deployer {
	if namespace == "" {
		namespace = "default"
	}
	return &deployer{
		client:     client,
		enabled:    deploymentName != "",
		namespace:  namespace,
		deployment: deploymentName,
		now:        time.Now,
	}
}

func (d *deployer) IsAvailable() bool {
	return d.enabled
}

func (d *deployer) Restart(ctx context.Context) error {
	if !d.enabled {
		return domain.ErrDeployerDisabled
	}

	patch := map[string]interface{}{
		"spec": map[string]interface{}{
			"template": map[string]interface{}{
				"metadata": map[string]interface{}{
					"annotations": map[string]interface{}{
						RestartedAtAnnotation: d.now().UTC().Format(time.RFC3339),
					},
				},
			},
		},
	}
	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("marshal restart patch: %w", err)
	}

	_, err = d.client.Resource(deploymentGVR).
		Namespace(d.namespace).
		Patch(ctx, d.deployment, types.MergePatchType, body, metav1.PatchOptions{})
	if err != nil {
		return fmt.Errorf("restart deployment %s/%s: %w", d.namespace, d.deployment, err)
	}
	return nil
}
