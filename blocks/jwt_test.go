package blocks

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/blockflow/types"
)

func TestJWT_SignThenVerify(t *testing.T) {
	sign := build(t, JWTSignConfig{Secret: "s3cret", Issuer: "blockflow", TTLMS: 60_000})
	verify := build(t, JWTVerifyConfig{Secret: "s3cret", Issuer: "blockflow"})

	token := once(t, sign, jsonIn(map[string]any{"sub": "user-1", "role": "admin"}))
	require.Equal(t, types.KindString, token.Kind)
	assert.Len(t, strings.Split(token.Value, "."), 3)

	claims := once(t, verify, strIn("Bearer "+token.Value))
	require.Equal(t, types.KindJSON, claims.Kind)
	obj := claims.Data.(map[string]any)
	assert.Equal(t, "user-1", obj["sub"])
	assert.Equal(t, "admin", obj["role"])
	assert.Equal(t, "blockflow", obj["iss"])

	exp := int64(obj["exp"].(float64))
	assert.InDelta(t, time.Now().Add(time.Minute).Unix(), exp, 5)
}

func TestJWTVerify_Rejects(t *testing.T) {
	sign := build(t, JWTSignConfig{Secret: "right", Issuer: "other"})
	token := once(t, sign, types.EmptyInput()).Value

	tests := []struct {
		name string
		cfg  JWTVerifyConfig
		in   types.BlockInput
		code types.ErrorCode
	}{
		{name: "wrong secret", cfg: JWTVerifyConfig{Secret: "wrong"}, in: strIn(token), code: types.ErrBlock},
		{name: "issuer mismatch", cfg: JWTVerifyConfig{Secret: "right", Issuer: "blockflow"}, in: strIn(token), code: types.ErrBlock},
		{name: "garbage", cfg: JWTVerifyConfig{Secret: "right"}, in: strIn("not.a.token"), code: types.ErrBlock},
		{name: "no token", cfg: JWTVerifyConfig{Secret: "right"}, in: types.EmptyInput(), code: types.ErrInputMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block := build(t, tt.cfg)
			_, err := block.Execute(context.Background(), tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.code, types.GetErrorCode(err))
		})
	}
}

func TestJWTVerify_Expired(t *testing.T) {
	sign := build(t, JWTSignConfig{Secret: "k", TTLMS: 1})
	token := once(t, sign, types.EmptyInput()).Value

	time.Sleep(1100 * time.Millisecond)
	verify := build(t, JWTVerifyConfig{Secret: "k"})
	_, err := verify.Execute(context.Background(), strIn(token))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")
}

func TestJWT_RequireSecret(t *testing.T) {
	_, err := buildErr(t, JWTSignConfig{})
	require.Error(t, err)
	_, err = buildErr(t, JWTVerifyConfig{})
	require.Error(t, err)
}
