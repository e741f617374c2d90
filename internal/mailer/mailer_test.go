package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResendMailerSend(t *testing.T) {
	var got map[string]interface{}
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m := NewResendMailer("key", "quotes@example.com").WithEndpoint(server.URL)
	err := m.Send(context.Background(), QuotePublished("client@example.com", "Q-00001", "Audit", "http://portal/q"))
	require.NoError(t, err)

	assert.Equal(t, "Bearer key", auth)
	assert.Equal(t, "Proposal Q-00001 is ready for review", got["subject"])
	assert.Equal(t, []interface{}{"client@example.com"}, got["to"])
	assert.Contains(t, got["html"], "http://portal/q")
}

func TestResendMailerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	tests := []struct {
		name   string
		mailer *ResendMailer
		want   string
	}{
		{name: "no api key", mailer: NewResendMailer("", "a@b.c"), want: ErrNotConfigured.Error()},
		{name: "bad status", mailer: NewResendMailer("key", "a@b.c").WithEndpoint(server.URL), want: "failed to send email: status 422"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mailer.Send(context.Background(), Message{To: "x@y.z"})
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}
