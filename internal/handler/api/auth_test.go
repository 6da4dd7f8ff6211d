package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acm-mitb/acm-site/internal/gate"
	"github.com/acm-mitb/acm-site/internal/model"
)

func validProfileForm() model.ProfileForm {
	return model.ProfileForm{
		RegNo:        "240000001",
		StudentEmail: "asha.mitblr2024@learner.manipal.edu",
		Year:         2,
		DOB:          "2005-04-12",
		Phone:        "9876543210",
		Department:   "AI",
	}
}

func TestSignIn_RejectsBadToken(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodPost, "/auth/session", SignInRequest{IDToken: "forged"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthorized", decodeErr(t, body).Code)

	resp, body = env.do(t, http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me MeResponse
	decodeData(t, body, &me)
	assert.Nil(t, me.Identity)
}

func TestSignIn_ProfileFlow(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, http.MethodGet, "/api/v1/profile", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := env.do(t, http.MethodPost, "/auth/session", SignInRequest{IDToken: "member-token"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me struct {
		Identity *model.Identity `json:"identity"`
		State    string          `json:"state"`
		Message  string          `json:"message"`
		Profile  struct {
			Complete bool `json:"complete"`
		} `json:"profile"`
	}
	decodeData(t, body, &me)
	require.NotNil(t, me.Identity)
	assert.Equal(t, "member", me.Identity.UID)
	assert.Equal(t, "unauthorized", me.State)
	assert.Equal(t, gate.GuidanceMessage("member"), me.Message)
	assert.False(t, me.Profile.Complete)

	form := validProfileForm()
	form.Phone = "12"
	resp, body = env.do(t, http.MethodPost, "/api/v1/profile", form)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "Please enter a valid 10-digit phone number.", decodeErr(t, body).Message)

	resp, body = env.do(t, http.MethodPost, "/api/v1/profile", validProfileForm())
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var p model.Profile
	decodeData(t, body, &p)
	assert.Equal(t, "asha@gmail.com", p.AuthEmail)
	assert.False(t, p.Privileged())

	resp, body = env.do(t, http.MethodPost, "/api/v1/profile", validProfileForm())
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, model.MsgProfileExists, decodeErr(t, body).Message)

	resp, body = env.do(t, http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeData(t, body, &me)
	assert.True(t, me.Profile.Complete)
}

func TestSignOut(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t, "member-token")

	resp, _ := env.do(t, http.MethodPost, "/auth/intro", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := env.do(t, http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me MeResponse
	decodeData(t, body, &me)
	assert.True(t, me.IntroSeen)

	resp, _ = env.do(t, http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = env.do(t, http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var after struct {
		Identity  *model.Identity `json:"identity"`
		State     string          `json:"state"`
		IntroSeen bool            `json:"introSeen"`
	}
	decodeData(t, body, &after)
	assert.Nil(t, after.Identity)
	assert.Equal(t, "unauthenticated", after.State)
	assert.False(t, after.IntroSeen)
}
