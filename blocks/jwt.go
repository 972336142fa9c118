package blocks

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/BaSui01/blockflow/types"
)

// =============================================================================
// jwt_sign
// =============================================================================

type jwtSignBlock struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func newJWTSign(cfg JWTSignConfig) (types.Block, error) {
	if cfg.Secret == "" {
		return nil, types.NewError(types.ErrBuild, "jwt_sign requires a secret")
	}
	return &jwtSignBlock{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    time.Duration(cfg.TTLMS) * time.Millisecond,
	}, nil
}

// Execute signs the input object as HS256 claims. iat is always set; iss and
// exp are set when configured.
func (b *jwtSignBlock) Execute(_ context.Context, in types.BlockInput) (types.ExecutionResult, error) {
	if err := types.ErrorFromInput(in); err != nil {
		return types.ExecutionResult{}, err
	}
	obj, err := objectFrom(TypeJWTSign, in)
	if err != nil {
		return types.ExecutionResult{}, err
	}

	now := time.Now()
	claims := jwt.MapClaims{}
	for k, v := range obj {
		claims[k] = v
	}
	claims["iat"] = now.Unix()
	if b.issuer != "" {
		claims["iss"] = b.issuer
	}
	if b.ttl > 0 {
		claims["exp"] = now.Add(b.ttl).Unix()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
	if err != nil {
		return types.ExecutionResult{}, types.NewError(types.ErrBlock, "jwt_sign: sign token").WithCause(err)
	}
	return types.Once(types.StringOutput(signed)), nil
}

// =============================================================================
// jwt_verify
// =============================================================================

type jwtVerifyBlock struct {
	secret []byte
	opts   []jwt.ParserOption
}

func newJWTVerify(cfg JWTVerifyConfig) (types.Block, error) {
	if cfg.Secret == "" {
		return nil, types.NewError(types.ErrBuild, "jwt_verify requires a secret")
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	return &jwtVerifyBlock{secret: []byte(cfg.Secret), opts: opts}, nil
}

// Execute verifies the token carried by the input and emits its claims. A
// "Bearer " prefix is accepted.
func (b *jwtVerifyBlock) Execute(_ context.Context, in types.BlockInput) (types.ExecutionResult, error) {
	if err := types.ErrorFromInput(in); err != nil {
		return types.ExecutionResult{}, err
	}
	raw, ok := scalarText(in)
	if !ok || raw == "" {
		return types.ExecutionResult{}, types.NewError(types.ErrInputMissing, "jwt_verify: no token in input")
	}
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))

	token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) { return b.secret, nil }, b.opts...)
	if err != nil {
		return types.ExecutionResult{}, types.NewError(types.ErrBlock, "jwt_verify: invalid token").WithCause(err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return types.ExecutionResult{}, types.NewError(types.ErrBlock, "jwt_verify: invalid token claims")
	}
	return types.Once(types.JSONOutput(map[string]any(claims))), nil
}
