// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package auth_test

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/salamnest/salamnest/internal/auth"
	"github.com/salamnest/salamnest/internal/identity"
	"github.com/salamnest/salamnest/internal/token"
	"github.com/salamnest/salamnest/pkg/errutil"
)

var _ = Describe("Sessions", func() {
	var (
		ctx  context.Context
		env  *flowEnv
		user *auth.AuthResponse
	)

	BeforeEach(func() {
		ctx = context.Background()
		env = newFlowEnv()
		DeferCleanup(env.stop)

		var err error
		user, err = env.client.Register(ctx, auth.RegisterRequest{
			Email: "a@x.com", Password: "Passw0rd!", FirstName: "Amina", LastName: "Khan",
		})
		Expect(err).NotTo(HaveOccurred())
	})

	login := func() *auth.AuthResponse {
		resp, err := env.client.Login(ctx, auth.LoginRequest{Email: "a@x.com", Password: "Passw0rd!"})
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	payloadOf := func(resp *auth.AuthResponse) token.Payload {
		return token.Payload{UserID: resp.ID.String(), Role: string(resp.Role)}
	}

	Describe("registering", func() {
		It("signs the new user in as a parent", func() {
			Expect(user.Message).To(Equal(auth.MsgRegistered))
			Expect(user.Role).To(Equal(identity.RoleParent))
			Expect(user.AccessToken).NotTo(BeEmpty())

			p, err := env.client.ValidateRefreshToken(ctx, user.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(*p).To(Equal(payloadOf(user)))
		})

		It("rejects a second account for the same email in any case", func() {
			_, err := env.client.Register(ctx, auth.RegisterRequest{Email: "A@X.COM", Password: "Passw0rd!"})
			Expect(errutil.KindOf(err)).To(Equal(errutil.KindConflict))
		})
	})

	Describe("logging in", func() {
		It("returns tokens for the stored role", func() {
			resp := login()
			Expect(resp.Message).To(Equal(auth.MsgLoginSuccessful))
			Expect(resp.Role).To(Equal(identity.RoleParent))

			claims, err := env.issuer.VerifyAccess(resp.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.Payload()).To(Equal(payloadOf(resp)))
		})

		It("answers a wrong password and an unknown email identically", func() {
			_, wrong := env.client.Login(ctx, auth.LoginRequest{Email: "a@x.com", Password: "Wrong0ne!"})
			_, unknown := env.client.Login(ctx, auth.LoginRequest{Email: "b@x.com", Password: "Passw0rd!"})

			Expect(errutil.KindOf(wrong)).To(Equal(errutil.KindAuthentication))
			Expect(errutil.CodeOf(wrong)).To(Equal(errutil.CodeOf(unknown)))
			Expect(wrong.Error()).To(Equal(unknown.Error()))
		})

		It("issues nothing on a role mismatch and keeps the current session", func() {
			current := login()

			_, err := env.client.Login(ctx, auth.LoginRequest{Email: "a@x.com", Password: "Passw0rd!", Role: "staff"})
			Expect(errutil.KindOf(err)).To(Equal(errutil.KindAuthorization))

			_, err = env.client.ValidateRefreshToken(ctx, current.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
		})

		It("invalidates the refresh token of the previous login", func() {
			first := login()
			second := login()

			_, err := env.client.ValidateRefreshToken(ctx, first.RefreshToken)
			Expect(errutil.KindOf(err)).To(Equal(errutil.KindAuthentication))

			_, err = env.client.ValidateRefreshToken(ctx, second.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("refreshing", func() {
		It("signs a distinct access token with the same payload", func() {
			resp := login()

			p, err := env.client.ValidateRefreshToken(ctx, resp.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			refreshed, err := env.client.Refresh(ctx, *p)
			Expect(err).NotTo(HaveOccurred())
			Expect(refreshed.AccessToken).NotTo(Equal(resp.AccessToken))

			before, err := env.issuer.VerifyAccess(resp.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			after, err := env.issuer.VerifyAccess(refreshed.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(after.Payload()).To(Equal(before.Payload()))
		})

		It("does not rotate the refresh token", func() {
			resp := login()
			p, err := env.client.ValidateRefreshToken(ctx, resp.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			_, err = env.client.Refresh(ctx, *p)
			Expect(err).NotTo(HaveOccurred())

			_, err = env.client.ValidateRefreshToken(ctx, resp.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("logging out", func() {
		It("revokes the refresh token and can be repeated", func() {
			resp := login()

			out, err := env.client.Logout(ctx, payloadOf(resp))
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Message).To(Equal(auth.MsgLoggedOut))

			_, err = env.client.ValidateRefreshToken(ctx, resp.RefreshToken)
			Expect(errutil.KindOf(err)).To(Equal(errutil.KindAuthentication))

			_, err = env.identity.MatchRefreshToken(ctx, resp.ID, resp.RefreshToken)
			Expect(err).To(HaveOccurred())

			out, err = env.client.Logout(ctx, payloadOf(resp))
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Message).To(Equal(auth.MsgLoggedOut))
		})

		It("succeeds for a user that does not exist", func() {
			out, err := env.client.Logout(ctx, token.Payload{UserID: ulid.Make().String(), Role: "parent"})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Message).To(Equal(auth.MsgLoggedOut))
		})
	})
})

var _ = Describe("Password reset", func() {
	var (
		ctx context.Context
		env *flowEnv
	)

	BeforeEach(func() {
		ctx = context.Background()
		env = newFlowEnv()
		DeferCleanup(env.stop)

		_, err := env.client.Register(ctx, auth.RegisterRequest{
			Email: "a@x.com", Password: "Passw0rd!", FirstName: "Amina", LastName: "Khan",
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("walks from a forgotten password to a new one", func() {
		session, err := env.client.Login(ctx, auth.LoginRequest{Email: "a@x.com", Password: "Passw0rd!"})
		Expect(err).NotTo(HaveOccurred())

		By("requesting a code")
		ack, err := env.forgot(ctx, "a@x.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(ack.Success).To(BeTrue())
		Expect(ack.Message).To(Equal(auth.MsgResetCodeSent))
		Expect(env.mail.count()).To(Equal(1))
		Expect(env.mail.lastCode()).To(Equal("482913"))

		By("verifying the code")
		verified, err := env.client.VerifyResetCode(ctx, "a@x.com", "482913")
		Expect(err).NotTo(HaveOccurred())
		Expect(verified.ResetToken).To(Equal("tok_abc"))

		By("setting a new password")
		done, err := env.client.ResetPassword(ctx, "tok_abc", "NewPass1!")
		Expect(err).NotTo(HaveOccurred())
		Expect(done.Message).To(Equal(auth.MsgPasswordResetSuccess))

		By("signing in with the new password only")
		_, err = env.client.Login(ctx, auth.LoginRequest{Email: "a@x.com", Password: "NewPass1!"})
		Expect(err).NotTo(HaveOccurred())
		_, err = env.client.Login(ctx, auth.LoginRequest{Email: "a@x.com", Password: "Passw0rd!"})
		Expect(errutil.KindOf(err)).To(Equal(errutil.KindAuthentication))

		By("having ended the earlier session")
		_, err = env.client.ValidateRefreshToken(ctx, session.RefreshToken)
		Expect(errutil.KindOf(err)).To(Equal(errutil.KindAuthentication))
	})

	It("answers an unknown email exactly like a known one", func() {
		known, err := env.forgot(ctx, "a@x.com")
		Expect(err).NotTo(HaveOccurred())
		unknown, err := env.forgot(ctx, "ghost@x.com")
		Expect(err).NotTo(HaveOccurred())

		Expect(unknown).To(Equal(known))
		Expect(env.mail.count()).To(Equal(1))
	})

	It("accepts a code only once", func() {
		_, err := env.forgot(ctx, "a@x.com")
		Expect(err).NotTo(HaveOccurred())

		_, err = env.client.VerifyResetCode(ctx, "a@x.com", "482913")
		Expect(err).NotTo(HaveOccurred())

		_, err = env.client.VerifyResetCode(ctx, "a@x.com", "482913")
		Expect(errutil.KindOf(err)).To(Equal(errutil.KindBadRequest))
		Expect(err.Error()).To(Equal("invalid or expired code"))
	})

	It("rejects a wrong code without consuming the real one", func() {
		_, err := env.forgot(ctx, "a@x.com")
		Expect(err).NotTo(HaveOccurred())

		_, err = env.client.VerifyResetCode(ctx, "a@x.com", "000000")
		Expect(errutil.KindOf(err)).To(Equal(errutil.KindBadRequest))

		_, err = env.client.VerifyResetCode(ctx, "a@x.com", "482913")
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects an expired code", func() {
		_, err := env.forgot(ctx, "a@x.com")
		Expect(err).NotTo(HaveOccurred())

		env.advance(auth.DefaultResetCodeTTL + time.Second)

		_, err = env.client.VerifyResetCode(ctx, "a@x.com", "482913")
		Expect(errutil.KindOf(err)).To(Equal(errutil.KindBadRequest))
	})

	It("rejects an expired reset token", func() {
		_, err := env.forgot(ctx, "a@x.com")
		Expect(err).NotTo(HaveOccurred())
		_, err = env.client.VerifyResetCode(ctx, "a@x.com", "482913")
		Expect(err).NotTo(HaveOccurred())

		env.advance(auth.DefaultResetTokenTTL + time.Second)

		_, err = env.client.ResetPassword(ctx, "tok_abc", "NewPass1!")
		Expect(errutil.KindOf(err)).To(Equal(errutil.KindBadRequest))

		_, err = env.client.Login(ctx, auth.LoginRequest{Email: "a@x.com", Password: "Passw0rd!"})
		Expect(err).NotTo(HaveOccurred())
	})

	It("uses a reset token only once", func() {
		_, err := env.forgot(ctx, "a@x.com")
		Expect(err).NotTo(HaveOccurred())
		_, err = env.client.VerifyResetCode(ctx, "a@x.com", "482913")
		Expect(err).NotTo(HaveOccurred())

		_, err = env.client.ResetPassword(ctx, "tok_abc", "NewPass1!")
		Expect(err).NotTo(HaveOccurred())
		_, err = env.client.ResetPassword(ctx, "tok_abc", "Another1!")
		Expect(errutil.CodeOf(err)).To(Equal("RESET_TOKEN_INVALID"))
	})

	It("replaces an earlier code with a newer one", func() {
		_, err := env.forgot(ctx, "a@x.com")
		Expect(err).NotTo(HaveOccurred())
		_, err = env.forgot(ctx, "a@x.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(env.mail.count()).To(Equal(2))

		_, err = env.client.VerifyResetCode(ctx, "a@x.com", "482913")
		Expect(err).NotTo(HaveOccurred())
	})

	It("keeps a weak new password out", func() {
		_, err := env.client.ResetPassword(ctx, "tok_abc", "short")
		Expect(errutil.KindOf(err)).To(Equal(errutil.KindValidation))
	})
})
