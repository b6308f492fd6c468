package pg

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/itchan-dev/askchan/shared/config"
	"github.com/itchan-dev/askchan/shared/domain"
	sharedpg "github.com/itchan-dev/askchan/shared/storage/pg"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var storage *Storage

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		log.Print("skipping postgres integration tests in short mode")
		os.Exit(0)
	}

	ctx := context.Background()
	var container *postgres.PostgresContainer
	storage, container = mustSetup(ctx)

	exitCode := m.Run()
	teardown(ctx, storage, container)
	os.Exit(exitCode)
}

func mustSetup(ctx context.Context) (*Storage, *postgres.PostgresContainer) {
	dbName := "askchan"
	dbUser := "user"
	dbPassword := "password"
	container, err := postgres.Run(ctx,
		"postgres:15.3-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			// postgres restarts itself after the first startup
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		log.Fatalf("failed to start container: %s", err)
	}
	containerPort, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		log.Fatalf("failed to obtain container port: %s", err)
	}
	port, err := strconv.Atoi(containerPort.Port())
	if err != nil {
		log.Fatalf("failed to obtain int container port: %s", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		log.Fatalf("failed to obtain container host: %s", err)
	}

	cfg := &config.Config{Private: config.Private{Pg: config.Pg{Host: host, Port: port, User: dbUser, Password: dbPassword, Dbname: dbName}}}
	storage, err := New(cfg, sharedpg.DefaultConnectionConfig())
	if err != nil {
		log.Fatalf("failed to connect to postgres container: %s", err)
	}
	if err := sharedpg.Migrate(ctx, storage.DB().DB); err != nil {
		log.Fatalf("failed to migrate: %s", err)
	}
	return storage, container
}

func teardown(ctx context.Context, storage *Storage, container *postgres.PostgresContainer) {
	if err := storage.Cleanup(); err != nil {
		log.Printf("failed to close storage connection: %s", err)
	}
	if err := container.Terminate(ctx); err != nil {
		log.Printf("failed to terminate container: %s", err)
	}
}

var userSeq atomic.Int64

// setupUser creates a fresh user so tests don't share state.
func setupUser(t *testing.T, admin bool) domain.User {
	t.Helper()
	email := fmt.Sprintf("User%d-%d@Example.com", userSeq.Add(1), time.Now().UnixNano())
	user, err := storage.EnsureUser(context.Background(), email, admin)
	require.NoError(t, err)
	return user
}

func setupQuestion(t *testing.T, author domain.User) *domain.Post {
	t.Helper()
	q, err := storage.CreatePost(context.Background(), domain.PostCreationData{
		Type:   domain.PostTypeQuestion,
		Author: author,
		Title:  "How do I test?",
		Text:   "question text",
		Html:   "<p>question text</p>",
	})
	require.NoError(t, err)
	return q
}

func setupChild(t *testing.T, postType domain.PostType, parent domain.PostId, author domain.User, text string) *domain.Post {
	t.Helper()
	p, err := storage.CreatePost(context.Background(), domain.PostCreationData{
		Type:     postType,
		ParentId: &parent,
		Author:   author,
		Text:     text,
	})
	require.NoError(t, err)
	return p
}

func randomSuffix() string {
	return strconv.FormatInt(time.Now().UnixNano()%1_000_000_000_000, 36)
}
