package identity

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// FirebaseVerifier checks Firebase ID tokens with the Admin SDK.
type FirebaseVerifier struct {
	client *auth.Client
	logger *zap.Logger
}

// NewFirebaseVerifier loads the service account credential file at
// credentialsFile.
func NewFirebaseVerifier(ctx context.Context, credentialsFile string, logger *zap.Logger) (*FirebaseVerifier, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	authCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := app.Auth(authCtx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	logger.Info("firebase auth initialized")
	return &FirebaseVerifier{client: client, logger: logger}, nil
}

func (f *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*Identity, error) {
	verifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	token, err := f.client.VerifyIDToken(verifyCtx, idToken)
	if err != nil {
		f.logger.Debug("firebase token rejected", zap.Error(err))
		return nil, ErrInvalidToken
	}
	if token.UID == "" {
		return nil, ErrInvalidToken
	}
	email, _ := token.Claims["email"].(string)
	name, _ := token.Claims["name"].(string)
	picture, _ := token.Claims["picture"].(string)
	return &Identity{UserID: token.UID, Email: email, DisplayName: name, AvatarRef: picture}, nil
}
