package mongostore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"stickygoals/internal/store"
	"stickygoals/internal/store/storetest"
)

func newTestStore(t *testing.T) (store.Store, func()) {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set")
	}
	ctx := context.Background()
	database := fmt.Sprintf("test_%d", time.Now().UnixNano())
	s, err := Connect(ctx, uri, database, zap.NewNop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	return s, func() {
		_ = s.client.Database(database).Drop(ctx)
		_ = s.Close(ctx)
	}
}

func TestContract(t *testing.T) {
	storetest.Run(t, newTestStore)
}
