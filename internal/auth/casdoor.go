package auth

import (
	"fmt"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"

	"github.com/SAP-F-2025/school-service/internal/config"
)

// ExternalIdentity is the subject of a token issued by an external provider
type ExternalIdentity struct {
	Username string
	Email    string
}

// CasdoorVerifier validates bearer tokens issued by Casdoor
type CasdoorVerifier struct {
	client *casdoorsdk.Client
}

func NewCasdoorVerifier(cfg config.CasdoorConfig) *CasdoorVerifier {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)
	return &CasdoorVerifier{client: client}
}

func (v *CasdoorVerifier) Verify(token string) (*ExternalIdentity, error) {
	claims, err := v.client.ParseJwtToken(token)
	if err != nil {
		return nil, fmt.Errorf("casdoor token: %w", err)
	}
	if claims.Name == "" && claims.Email == "" {
		return nil, fmt.Errorf("casdoor token carries no user identity")
	}
	return &ExternalIdentity{Username: claims.Name, Email: claims.Email}, nil
}
