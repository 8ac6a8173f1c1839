// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

//go:build integration

// Package integration runs the identity store on PostgreSQL and the auth
// orchestrator against it over a mutually authenticated TCP bus.
package integration

import (
	"context"
	"io"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/salamnest/salamnest/internal/auth"
	bus "github.com/salamnest/salamnest/internal/grpc"
	"github.com/salamnest/salamnest/internal/identity"
	identitypg "github.com/salamnest/salamnest/internal/identity/postgres"
	"github.com/salamnest/salamnest/internal/notify"
	"github.com/salamnest/salamnest/internal/ratelimit"
	"github.com/salamnest/salamnest/internal/store"
	"github.com/salamnest/salamnest/internal/tls"
	"github.com/salamnest/salamnest/internal/token"
)

func TestIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Integration Suite")
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// outbox records reset codes instead of mailing them.
type outbox struct {
	mu   sync.Mutex
	sent map[string]string
}

func (o *outbox) SendResetCode(_ context.Context, msg notify.ResetCode) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent[msg.Email] = msg.Code
	return nil
}

func (o *outbox) codeFor(email string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sent[email]
}

// testEnv holds all resources needed for integration tests.
type testEnv struct {
	ctx       context.Context
	container testcontainers.Container
	pool      *pgxpool.Pool
	redis     *miniredis.Miniredis

	store   *identity.Store
	issuer  *token.Issuer
	mail    *outbox
	resets  *auth.PasswordResetService
	client  *auth.Client
	servers []*bus.Server
	conns   []*bus.Client
}

var env *testEnv

var _ = BeforeSuite(func() {
	var err error
	env, err = setupTestEnv()
	Expect(err).NotTo(HaveOccurred())
})

var _ = AfterSuite(func() {
	if env != nil {
		env.cleanup()
	}
})

func setupTestEnv() (*testEnv, error) {
	e := &testEnv{ctx: context.Background(), mail: &outbox{sent: map[string]string{}}}

	container, err := postgres.Run(e.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("salamnest_test"),
		postgres.WithUsername("salamnest"),
		postgres.WithPassword("salamnest"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, err
	}
	e.container = container

	connStr, err := container.ConnectionString(e.ctx, "sslmode=disable")
	if err != nil {
		e.cleanup()
		return nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		e.cleanup()
		return nil, err
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		e.cleanup()
		return nil, err
	}
	_ = migrator.Close()

	if e.pool, err = store.Connect(e.ctx, store.ConnectConfig{URL: connStr, Attempts: 3}); err != nil {
		e.cleanup()
		return nil, err
	}

	e.store, err = identity.NewStoreWithLogger(
		identitypg.NewUserRepository(e.pool),
		identitypg.NewResetCodeRepository(e.pool),
		identitypg.NewResetTokenRepository(e.pool),
		identity.NewArgon2idHasherWithParams(identity.Argon2Params{Time: 1, Memory: 1024, Threads: 1}),
		discard,
	)
	if err != nil {
		e.cleanup()
		return nil, err
	}

	if err := e.startServices(); err != nil {
		e.cleanup()
		return nil, err
	}
	return e, nil
}

// startServices issues bus certificates and starts identity and auth on
// loopback listeners, each talking mTLS.
func (e *testEnv) startServices() error {
	certsDir := GinkgoT().TempDir()
	ca, err := tls.GenerateCA()
	if err != nil {
		return err
	}
	if err := ca.Save(certsDir); err != nil {
		return err
	}
	for _, name := range []string{"identity", "auth", "gateway"} {
		cert, err := ca.Issue(name)
		if err != nil {
			return err
		}
		if err := cert.Save(certsDir); err != nil {
			return err
		}
	}

	identityAddr, err := e.serve(certsDir, "identity", identity.NewBusService(e.store))
	if err != nil {
		return err
	}

	identityConn, err := e.dial(certsDir, "auth", "identity", identityAddr)
	if err != nil {
		return err
	}
	identityClient := identity.NewClient(identityConn)

	e.issuer, err = token.NewIssuer(token.Config{
		AccessSecret:  "integration-access-secret",
		RefreshSecret: "integration-refresh-secret",
	})
	if err != nil {
		return err
	}

	e.redis, err = miniredis.Run()
	if err != nil {
		return err
	}
	redisClient, err := ratelimit.NewRedisClient(e.ctx, e.redis.Addr(), "", 0)
	if err != nil {
		return err
	}
	requests, err := ratelimit.NewWindow(redisClient, "salamnest:reset:request:", 3, time.Minute)
	if err != nil {
		return err
	}
	verifies, err := ratelimit.NewWindow(redisClient, "salamnest:reset:verify:", 5, time.Minute)
	if err != nil {
		return err
	}

	sessions, err := auth.NewServiceWithLogger(identityClient, e.issuer, auth.Config{AutoLogin: true}, discard)
	if err != nil {
		return err
	}
	resets, err := auth.NewPasswordResetServiceWithLogger(identityClient, e.mail, auth.ResetConfig{}, discard,
		auth.WithRequestLimiter(requests),
		auth.WithVerifyLimiter(verifies),
	)
	if err != nil {
		return err
	}

	e.resets = resets

	authAddr, err := e.serve(certsDir, "auth", auth.NewBusService(sessions, resets))
	if err != nil {
		return err
	}
	authConn, err := e.dial(certsDir, "gateway", "auth", authAddr)
	if err != nil {
		return err
	}
	e.client = auth.NewClient(authConn)
	return nil
}

// forgot asks for a reset code and waits until it has been mailed.
func (e *testEnv) forgot(ctx context.Context, email string) (*auth.ResetResponse, error) {
	ack, err := e.client.ForgotPassword(ctx, email)
	e.resets.Wait()
	return ack, err
}

func (e *testEnv) serve(certsDir, name string, svc *bus.Service) (string, error) {
	serverTLS, err := tls.ServerConfig(certsDir, name)
	if err != nil {
		return "", err
	}
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	srv := bus.NewServer(bus.ServerConfig{TLSConfig: serverTLS, Logger: discard})
	srv.Register(svc)
	go func() {
		_ = srv.Serve(lis) //nolint:errcheck // returns after Stop
	}()
	e.servers = append(e.servers, srv)
	return lis.Addr().String(), nil
}

func (e *testEnv) dial(certsDir, name, serverName, addr string) (*bus.Client, error) {
	clientTLS, err := tls.ClientConfig(certsDir, name, serverName)
	if err != nil {
		return nil, err
	}
	conn, err := bus.NewClient(e.ctx, bus.ClientConfig{
		Address:     addr,
		TLSConfig:   clientTLS,
		CallTimeout: 10 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	e.conns = append(e.conns, conn)
	return conn, nil
}

func (e *testEnv) cleanup() {
	if e.resets != nil {
		e.resets.Wait()
	}
	for _, conn := range e.conns {
		_ = conn.Close()
	}
	for _, srv := range e.servers {
		srv.Stop()
	}
	if e.redis != nil {
		e.redis.Close()
	}
	if e.pool != nil {
		e.pool.Close()
	}
	if e.container != nil {
		_ = e.container.Terminate(e.ctx)
	}
}

// uniqueEmail keeps specs independent on the shared database.
func uniqueEmail(prefix string) string {
	return prefix + "+" + time.Now().Format("150405.000000000") + "@example.com"
}
