package firestore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/go-cmp/cmp"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/gcloud"
	"github.com/zoobzio/depository"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func setupFirestore(t *testing.T) *firestore.Client {
	t.Helper()
	ctx := context.Background()

	container, err := gcloud.RunFirestore(ctx, "gcr.io/google.com/cloudsdktool/cloud-sdk:emulators",
		gcloud.WithProjectID("test-project"),
	)
	if err != nil {
		t.Fatalf("failed to start firestore container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	conn, err := grpc.NewClient(container.URI,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("failed to create grpc connection: %v", err)
	}

	client, err := firestore.NewClient(ctx, "test-project",
		option.WithGRPCConn(conn),
	)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})

	return client
}

func receive(t *testing.T, ch <-chan []byte) any {
	t.Helper()
	select {
	case data, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			t.Fatalf("invalid JSON %q: %v", data, err)
		}
		return v
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for value")
	}
	return nil
}

func TestSource_EmitsDocument(t *testing.T) {
	client := setupFirestore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	_, err := client.Collection("config").Doc("app").Set(ctx, map[string]any{
		"port":  8080,
		"flags": map[string]any{"beta": true},
	})
	if err != nil {
		t.Fatalf("failed to create document: %v", err)
	}

	ch, err := New(client, "config", "app").Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	want := map[string]any{
		"port":  float64(8080),
		"flags": map[string]any{"beta": true},
	}
	if diff := cmp.Diff(want, receive(t, ch)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSource_WithField(t *testing.T) {
	client := setupFirestore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	_, err := client.Collection("config").Doc("app").Set(ctx, map[string]any{
		"limits": map[string]any{"rps": 10},
		"other":  "ignored",
	})
	if err != nil {
		t.Fatalf("failed to create document: %v", err)
	}

	ch, err := New(client, "config", "app", WithField("limits")).Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	if diff := cmp.Diff(map[string]any{"rps": float64(10)}, receive(t, ch)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSource_EmitsOnChangeAndDelete(t *testing.T) {
	client := setupFirestore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	doc := client.Collection("config").Doc("app")
	if _, err := doc.Set(ctx, map[string]any{"v": 1}); err != nil {
		t.Fatalf("failed to create document: %v", err)
	}

	ch, err := New(client, "config", "app").Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	receive(t, ch)

	if _, err := doc.Update(ctx, []firestore.Update{{Path: "v", Value: 2}}); err != nil {
		t.Fatalf("failed to update document: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"v": float64(2)}, receive(t, ch)); diff != "" {
		t.Errorf("after update mismatch (-want +got):\n%s", diff)
	}

	if _, err := doc.Delete(ctx); err != nil {
		t.Fatalf("failed to delete document: %v", err)
	}
	if diff := cmp.Diff(map[string]any{}, receive(t, ch)); diff != "" {
		t.Errorf("after delete mismatch (-want +got):\n%s", diff)
	}
}

func TestSource_ClosesOnContextCancel(t *testing.T) {
	client := setupFirestore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)

	if _, err := client.Collection("config").Doc("app").Set(ctx, map[string]any{"v": 1}); err != nil {
		t.Fatalf("failed to create document: %v", err)
	}

	ch, err := New(client, "config", "app").Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	<-ch
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected channel to close")
		}
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for channel close")
	}
}

func TestSource_FeedsDepository(t *testing.T) {
	client := setupFirestore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if _, err := client.Collection("config").Doc("app").Set(ctx, map[string]any{"region": "us"}); err != nil {
		t.Fatalf("failed to create document: %v", err)
	}

	store := depository.New()
	if err := store.Feed("app", New(client, "config", "app")).Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	got, ok := store.Get("app.region")
	if !ok || got != "us" {
		t.Errorf("expected us, got %v (%v)", got, ok)
	}
}
