// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

//go:build integration

package integration

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/salamnest/salamnest/internal/auth"
	"github.com/salamnest/salamnest/internal/identity"
	"github.com/salamnest/salamnest/internal/token"
	"github.com/salamnest/salamnest/pkg/errutil"
)

var _ = Describe("Sessions over PostgreSQL", func() {
	var (
		ctx   context.Context
		email string
		user  *auth.AuthResponse
	)

	BeforeEach(func() {
		ctx = context.Background()
		email = uniqueEmail("session")

		var err error
		user, err = env.client.Register(ctx, auth.RegisterRequest{
			Email: email, Password: "Passw0rd!", FirstName: "Amina", LastName: "Khan",
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("registers, logs in and refreshes", func() {
		Expect(user.AccessToken).NotTo(BeEmpty())
		Expect(user.Role).To(Equal(identity.RoleParent))

		login, err := env.client.Login(ctx, auth.LoginRequest{Email: email, Password: "Passw0rd!"})
		Expect(err).NotTo(HaveOccurred())
		Expect(login.ID).To(Equal(user.ID))

		payload, err := env.client.ValidateRefreshToken(ctx, login.RefreshToken)
		Expect(err).NotTo(HaveOccurred())
		Expect(payload.UserID).To(Equal(user.ID.String()))

		refreshed, err := env.client.Refresh(ctx, *payload)
		Expect(err).NotTo(HaveOccurred())
		claims, err := env.issuer.VerifyAccess(refreshed.AccessToken)
		Expect(err).NotTo(HaveOccurred())
		Expect(claims.Payload()).To(Equal(*payload))
	})

	It("rejects a duplicate email regardless of case", func() {
		_, err := env.client.Register(ctx, auth.RegisterRequest{Email: email, Password: "Passw0rd!"})
		Expect(errutil.KindOf(err)).To(Equal(errutil.KindConflict))
	})

	It("ends the session on logout", func() {
		login, err := env.client.Login(ctx, auth.LoginRequest{Email: email, Password: "Passw0rd!"})
		Expect(err).NotTo(HaveOccurred())

		_, err = env.client.Logout(ctx, token.Payload{UserID: user.ID.String(), Role: string(user.Role)})
		Expect(err).NotTo(HaveOccurred())

		_, err = env.client.ValidateRefreshToken(ctx, login.RefreshToken)
		Expect(errutil.KindOf(err)).To(Equal(errutil.KindAuthentication))
	})

	It("answers a wrong password like an unknown email", func() {
		_, wrongPassword := env.client.Login(ctx, auth.LoginRequest{Email: email, Password: "nope"})
		_, unknownEmail := env.client.Login(ctx, auth.LoginRequest{Email: uniqueEmail("ghost"), Password: "nope"})

		Expect(errutil.KindOf(wrongPassword)).To(Equal(errutil.KindAuthentication))
		Expect(errutil.CodeOf(wrongPassword)).To(Equal(errutil.CodeOf(unknownEmail)))
		Expect(wrongPassword.Error()).To(Equal(unknownEmail.Error()))
	})
})

var _ = Describe("Password reset over PostgreSQL", func() {
	var (
		ctx   context.Context
		email string
	)

	BeforeEach(func() {
		ctx = context.Background()
		email = uniqueEmail("reset")
		_, err := env.client.Register(ctx, auth.RegisterRequest{Email: email, Password: "Passw0rd!"})
		Expect(err).NotTo(HaveOccurred())
	})

	It("completes the four step flow", func() {
		login, err := env.client.Login(ctx, auth.LoginRequest{Email: email, Password: "Passw0rd!"})
		Expect(err).NotTo(HaveOccurred())

		ack, err := env.forgot(ctx, email)
		Expect(err).NotTo(HaveOccurred())
		Expect(ack.Success).To(BeTrue())

		code := env.mail.codeFor(email)
		Expect(code).To(MatchRegexp(`^\d{6}$`))

		verified, err := env.client.VerifyResetCode(ctx, email, code)
		Expect(err).NotTo(HaveOccurred())
		Expect(verified.ResetToken).NotTo(BeEmpty())

		_, err = env.client.VerifyResetCode(ctx, email, code)
		Expect(errutil.KindOf(err)).To(Equal(errutil.KindBadRequest), "codes verify once")

		done, err := env.client.ResetPassword(ctx, verified.ResetToken, "NewPass1!")
		Expect(err).NotTo(HaveOccurred())
		Expect(done.Success).To(BeTrue())

		_, err = env.client.ResetPassword(ctx, verified.ResetToken, "NewPass2!")
		Expect(errutil.KindOf(err)).To(Equal(errutil.KindBadRequest), "tokens are single use")

		_, err = env.client.Login(ctx, auth.LoginRequest{Email: email, Password: "Passw0rd!"})
		Expect(errutil.KindOf(err)).To(Equal(errutil.KindAuthentication))
		_, err = env.client.Login(ctx, auth.LoginRequest{Email: email, Password: "NewPass1!"})
		Expect(err).NotTo(HaveOccurred())

		_, err = env.client.ValidateRefreshToken(ctx, login.RefreshToken)
		Expect(err).To(HaveOccurred(), "a reset ends existing sessions")
	})

	It("acknowledges unknown emails without sending anything", func() {
		ghost := uniqueEmail("ghost")
		ack, err := env.forgot(ctx, ghost)
		Expect(err).NotTo(HaveOccurred())
		Expect(ack.Success).To(BeTrue())
		Expect(env.mail.codeFor(ghost)).To(BeEmpty())
	})

	It("throttles repeated requests through redis", func() {
		for range 3 {
			_, err := env.forgot(ctx, email)
			Expect(err).NotTo(HaveOccurred())
		}
		first := env.mail.codeFor(email)

		ack, err := env.forgot(ctx, email)
		Expect(err).NotTo(HaveOccurred())
		Expect(ack.Success).To(BeTrue(), "throttled requests get the same acknowledgement")
		Expect(env.mail.codeFor(email)).To(Equal(first), "no new code is issued")
	})

	It("purges expired artifacts", func() {
		_, err := env.forgot(ctx, email)
		Expect(err).NotTo(HaveOccurred())

		janitor, err := identity.NewJanitor(env.store, time.Hour, discard)
		Expect(err).NotTo(HaveOccurred())
		Expect(janitor.RunOnce(ctx)).To(Succeed())

		_, err = env.client.VerifyResetCode(ctx, email, env.mail.codeFor(email))
		Expect(err).NotTo(HaveOccurred(), "live codes survive a purge")
	})
})
