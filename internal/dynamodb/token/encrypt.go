package token

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"philcali.me/pubsubhubbub/internal/data"
)

const NONCE_SIZE = 12

type EncryptMode func(cipher.Block) (cipher.AEAD, error)

type EncryptionTokenMarshaler struct {
	Mode   EncryptMode
	Secret []byte
}

func NewGCM(secret string) *EncryptionTokenMarshaler {
	return &EncryptionTokenMarshaler{
		Mode:   cipher.NewGCM,
		Secret: []byte(secret),
	}
}

type _sealed struct {
	Ciphertext string `json:"ciphertext"`
	Nonce      string `json:"nonce"`
}

func _encodeKey(lastKey map[string]types.AttributeValue) ([]byte, error) {
	if len(lastKey) == 0 {
		return nil, nil
	}
	token := make(data.NextToken, len(lastKey))
	for field, value := range lastKey {
		switch v := value.(type) {
		case *types.AttributeValueMemberS:
			token[field] = map[string]string{"S": v.Value}
		case *types.AttributeValueMemberN:
			token[field] = map[string]string{"N": v.Value}
		case *types.AttributeValueMemberB:
			token[field] = map[string]string{"B": base64.StdEncoding.EncodeToString(v.Value)}
		}
	}
	return json.Marshal(token)
}

func _decodeKey(plaintext []byte) (map[string]types.AttributeValue, error) {
	var token data.NextToken
	if err := json.Unmarshal(plaintext, &token); err != nil {
		return nil, err
	}
	lastKey := make(map[string]types.AttributeValue, len(token))
	for field, inner := range token {
		if sv, ok := inner["S"]; ok {
			lastKey[field] = &types.AttributeValueMemberS{Value: sv}
		}
		if nv, ok := inner["N"]; ok {
			lastKey[field] = &types.AttributeValueMemberN{Value: nv}
		}
		if bv, ok := inner["B"]; ok {
			raw, err := base64.StdEncoding.DecodeString(bv)
			if err != nil {
				return nil, err
			}
			lastKey[field] = &types.AttributeValueMemberB{Value: raw}
		}
	}
	return lastKey, nil
}

func (em *EncryptionTokenMarshaler) _aead(scope string) (cipher.AEAD, error) {
	hash := sha256.New()
	hash.Write(em.Secret)
	hash.Write([]byte(scope))
	block, err := aes.NewCipher(hash.Sum(nil))
	if err != nil {
		return nil, err
	}
	return em.Mode(block)
}

func (em *EncryptionTokenMarshaler) Marshal(scope string, lastKey map[string]types.AttributeValue) ([]byte, error) {
	serialized, err := _encodeKey(lastKey)
	if err != nil || serialized == nil {
		return nil, err
	}
	aead, err := em._aead(scope)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, NONCE_SIZE)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(_sealed{
		Ciphertext: hex.EncodeToString(aead.Seal(nil, nonce, serialized, nil)),
		Nonce:      hex.EncodeToString(nonce),
	})
	if err != nil {
		return nil, err
	}
	return []byte(base64.URLEncoding.EncodeToString(payload)), nil
}

func (em *EncryptionTokenMarshaler) Unmarshal(scope string, token []byte) (map[string]types.AttributeValue, error) {
	if len(token) == 0 {
		return nil, nil
	}
	payload, err := base64.URLEncoding.DecodeString(string(token))
	if err != nil {
		return nil, err
	}
	var sealed _sealed
	if err := json.Unmarshal(payload, &sealed); err != nil {
		return nil, err
	}
	ciphertext, err := hex.DecodeString(sealed.Ciphertext)
	if err != nil {
		return nil, err
	}
	nonce, err := hex.DecodeString(sealed.Nonce)
	if err != nil {
		return nil, err
	}
	if len(nonce) != NONCE_SIZE {
		return nil, errors.New("invalid token nonce")
	}
	aead, err := em._aead(scope)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, err
	}
	return _decodeKey(plaintext)
}
