// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package auth_test

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"github.com/salamnest/salamnest/internal/auth"
	bus "github.com/salamnest/salamnest/internal/grpc"
	"github.com/salamnest/salamnest/internal/identity"
	"github.com/salamnest/salamnest/internal/identity/memory"
	"github.com/salamnest/salamnest/internal/notify"
	"github.com/salamnest/salamnest/internal/token"
)

func TestAuthFlows(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Flow Suite")
}

// outbox records reset codes instead of mailing them.
type outbox struct {
	mu   sync.Mutex
	sent []notify.ResetCode
}

func (o *outbox) SendResetCode(_ context.Context, msg notify.ResetCode) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) lastCode() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.sent) == 0 {
		return ""
	}
	return o.sent[len(o.sent)-1].Code
}

func (o *outbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sent)
}

// flowEnv runs identity and auth on one in-memory bus, the way a deployment
// runs them on two hosts.
type flowEnv struct {
	client   *auth.Client
	resets   *auth.PasswordResetService
	identity *identity.Client
	issuer   *token.Issuer
	mail     *outbox

	mu  sync.Mutex
	now time.Time

	stop func()
}

func (e *flowEnv) clock() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

func (e *flowEnv) advance(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = e.now.Add(d)
}

// forgot asks for a reset code and waits until it has been mailed.
func (e *flowEnv) forgot(ctx context.Context, email string) (*auth.ResetResponse, error) {
	ack, err := e.client.ForgotPassword(ctx, email)
	e.resets.Wait()
	return ack, err
}

func newFlowEnv() *flowEnv {
	env := &flowEnv{
		mail: &outbox{},
		now:  time.Now().UTC(),
	}

	store, err := identity.NewStoreWithLogger(
		memory.NewUserRepository(),
		memory.NewResetCodeRepository(),
		memory.NewResetTokenRepository(),
		cheapHasher(),
		discard,
		identity.WithClock(env.clock),
	)
	Expect(err).NotTo(HaveOccurred())

	lis := bufconn.Listen(1 << 20)
	srv := bus.NewServer(bus.ServerConfig{Logger: discard})
	srv.Register(identity.NewBusService(store))

	conn, err := bus.NewClient(context.Background(), bus.ClientConfig{
		Address:     "passthrough:///salamnest",
		CallTimeout: 5 * time.Second,
		DialOptions: []grpc.DialOption{
			grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
				return lis.DialContext(ctx)
			}),
		},
	})
	Expect(err).NotTo(HaveOccurred())
	env.identity = identity.NewClient(conn)

	env.issuer, err = token.NewIssuer(token.Config{AccessSecret: "access-secret", RefreshSecret: "refresh-secret"})
	Expect(err).NotTo(HaveOccurred())

	svc, err := auth.NewServiceWithLogger(env.identity, env.issuer, auth.Config{AutoLogin: true}, discard)
	Expect(err).NotTo(HaveOccurred())
	resets, err := auth.NewPasswordResetServiceWithLogger(env.identity, env.mail, auth.ResetConfig{}, discard,
		auth.WithCodeGenerator(func() (string, error) { return "482913", nil }),
		auth.WithTokenGenerator(func() (string, error) { return "tok_abc", nil }),
		auth.WithResetClock(env.clock),
	)
	Expect(err).NotTo(HaveOccurred())
	srv.Register(auth.NewBusService(svc, resets))
	env.resets = resets

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(lis) //nolint:errcheck // returns after Stop
	}()

	env.client = auth.NewClient(conn)
	env.stop = func() {
		resets.Wait()
		_ = conn.Close()
		srv.Stop()
		<-done
	}
	return env
}

func cheapHasher() *identity.Argon2idHasher {
	return identity.NewArgon2idHasherWithParams(identity.Argon2Params{Time: 1, Memory: 1024, Threads: 1})
}
