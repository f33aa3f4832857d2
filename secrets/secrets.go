package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// Overlay fetches a Secrets Manager entry holding a flat JSON object of
// KEY -> value pairs and exports each pair into the environment, so the
// regular config parse picks them up. Existing variables win.
func Overlay(ctx context.Context, id string, region string) error {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return fmt.Errorf("loading aws config: %w", err)
	}

	client := secretsmanager.NewFromConfig(cfg)

	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &id,
	})
	if err != nil {
		return fmt.Errorf("retrieving secret[%s]: %w", id, err)
	}

	if out.SecretString == nil {
		return fmt.Errorf("secret[%s] has no string payload", id)
	}

	var pairs map[string]string
	if err := json.Unmarshal([]byte(*out.SecretString), &pairs); err != nil {
		return fmt.Errorf("decoding secret[%s]: %w", id, err)
	}

	for k, v := range pairs {
		if _, set := os.LookupEnv(k); set {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return fmt.Errorf("exporting secret key %s: %w", k, err)
		}
	}

	return nil
}
