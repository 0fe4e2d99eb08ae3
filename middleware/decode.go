package middleware

import (
	"encoding/base64"
	"encoding/json"

	basisauth "github.com/basisauth/basisauth"
)

// DecodeClaim decodes an authorization header value into a full session
// claim. The wire form is standard base64 over a JSON-serialized claim.
// An empty value yields [basisauth.ErrMissingAuthorization]; anything that
// fails base64 or JSON decoding yields [basisauth.ErrMalformedAuthorization].
func DecodeClaim(header string) (*basisauth.Session, error) {
	raw, err := decodePayload(header)
	if err != nil {
		return nil, err
	}

	var claim basisauth.Session
	if err := json.Unmarshal(raw, &claim); err != nil {
		return nil, basisauth.ErrMalformedAuthorization
	}
	return &claim, nil
}

// DecodeToken decodes an authorization header value into an access-token
// lookup hint.
func DecodeToken(header string) (basisauth.AccessToken, error) {
	raw, err := decodePayload(header)
	if err != nil {
		return basisauth.AccessToken{}, err
	}

	var tok basisauth.AccessToken
	if err := json.Unmarshal(raw, &tok); err != nil {
		return basisauth.AccessToken{}, basisauth.ErrMalformedAuthorization
	}
	return tok, nil
}

func decodePayload(header string) ([]byte, error) {
	if header == "" {
		return nil, basisauth.ErrMissingAuthorization
	}
	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return nil, basisauth.ErrMalformedAuthorization
	}
	return raw, nil
}

// EncodeClaim produces the wire form of a claim for the authorization
// header. Client-side counterpart of [DecodeClaim].
func EncodeClaim(claim *basisauth.Session) (string, error) {
	raw, err := json.Marshal(claim)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// EncodeToken produces the wire form of an access-token hint.
func EncodeToken(tok basisauth.AccessToken) (string, error) {
	raw, err := json.Marshal(tok)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
