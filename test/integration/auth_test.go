// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package integration

import (
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
)

var _ = Describe("authd API", Ordered, func() {
	var env *testEnv

	BeforeAll(func() {
		var err error
		env, err = setupTestEnv()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if env != nil {
			env.cleanup()
		}
	})

	register := func(email, password string) (int, map[string]any) {
		status, body, err := env.post("/v1/register", "", map[string]any{"email": email, "password": password})
		Expect(err).NotTo(HaveOccurred())
		return status, body
	}

	login := func(email, password string) (int, map[string]any) {
		status, body, err := env.post("/v1/login", "", map[string]any{"email": email, "password": password})
		Expect(err).NotTo(HaveOccurred())
		return status, body
	}

	validate := func(token string) map[string]any {
		status, body, err := env.post("/v1/validate", token, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		return body
	}

	Describe("Registration", func() {
		It("persists a new account", func() {
			status, body := register("ada@example.com", "correct horse")
			Expect(status).To(Equal(http.StatusCreated))
			Expect(body["id"]).To(HaveLen(26), "account id should be a ULID")

			var count int
			err := env.pool.QueryRow(env.ctx, "SELECT count(*) FROM accounts WHERE email = $1", "ada@example.com").Scan(&count)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))
		})

		It("rejects a duplicate email", func() {
			status, body := register("ada@example.com", "another password")
			Expect(status).To(Equal(http.StatusConflict))
			Expect(errorCode(body)).To(Equal("USER_EXISTS"))
		})
	})

	Describe("Login", func() {
		It("fails identically for a wrong password and an unknown email", func() {
			wrongStatus, wrongBody := login("ada@example.com", "wrong")
			unknownStatus, unknownBody := login("nobody@example.com", "correct horse")

			Expect(wrongStatus).To(Equal(http.StatusUnauthorized))
			Expect(unknownStatus).To(Equal(wrongStatus))
			Expect(unknownBody).To(Equal(wrongBody))
			Expect(errorCode(wrongBody)).To(Equal("INVALID_CREDENTIALS"))
		})
	})

	Describe("Token lifecycle", func() {
		var token, userID string

		BeforeAll(func() {
			status, body := login("ada@example.com", "correct horse")
			Expect(status).To(Equal(http.StatusOK))
			token, _ = body["token"].(string)
			userID, _ = body["id"].(string)
			Expect(token).NotTo(BeEmpty())
		})

		It("validates a fresh token and loads its user", func() {
			body := validate(token)
			Expect(body["valid"]).To(BeTrue())

			claims, _ := body["claims"].(map[string]any)
			Expect(claims["sub"]).To(Equal(userID))
			Expect(claims["email"]).To(Equal("ada@example.com"))
			Expect(claims["iss"]).To(Equal("authd-e2e"))

			user, _ := body["user"].(map[string]any)
			Expect(user["id"]).To(Equal(userID))
		})

		It("rejects a tampered token", func() {
			body := validate(token + "x")
			Expect(body["valid"]).To(BeFalse())
			Expect(body).NotTo(HaveKey("claims"))
		})

		It("revokes the token on logout with a TTL bounded by its expiry", func() {
			status, _, err := env.post("/v1/logout", token, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusNoContent))

			keys, err := env.redis.Keys(env.ctx, "e2e:revoked:*").Result()
			Expect(err).NotTo(HaveOccurred())
			Expect(keys).To(HaveLen(1))
			Expect(keys[0]).To(HavePrefix("e2e:revoked:jti:"))

			ttl, err := env.redis.TTL(env.ctx, keys[0]).Result()
			Expect(err).NotTo(HaveOccurred())
			Expect(ttl).To(BeNumerically(">", 0))
			Expect(ttl).To(BeNumerically("<=", env.tokenTTL))

			Expect(validate(token)["valid"]).To(BeFalse())
		})

		It("lets the revocation marker expire with the token", func() {
			Eventually(func() ([]string, error) {
				return env.redis.Keys(env.ctx, "e2e:revoked:*").Result()
			}).WithTimeout(2 * env.tokenTTL).WithPolling(200 * time.Millisecond).Should(BeEmpty())

			Expect(validate(token)["valid"]).To(BeFalse(), "expired token stays invalid")
		})

		It("rejects logout of an invalid token", func() {
			status, body, err := env.post("/v1/logout", "not-a-token", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusUnauthorized))
			Expect(errorCode(body)).To(Equal("TOKEN_INVALID"))
		})
	})

	Describe("Deleted accounts", func() {
		It("keeps the token valid but reports no user", func() {
			status, _ := register("gone@example.com", "pw")
			Expect(status).To(Equal(http.StatusCreated))
			status, body := login("gone@example.com", "pw")
			Expect(status).To(Equal(http.StatusOK))
			token, _ := body["token"].(string)

			_, err := env.pool.Exec(env.ctx, "DELETE FROM accounts WHERE email = $1", "gone@example.com")
			Expect(err).NotTo(HaveOccurred())

			result := validate(token)
			Expect(result["valid"]).To(BeTrue())
			Expect(result).NotTo(HaveKey("user"))
		})
	})
})
