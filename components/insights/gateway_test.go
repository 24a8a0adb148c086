package insights

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusErrorPrefersBodyMessage(t *testing.T) {
	err := StatusError(400, []byte(`{"error":" Ano inválido "}`))
	assert.Equal(t, ErrorStatus, err.Kind)
	assert.Equal(t, "Ano inválido", err.Message)

	err = StatusError(422, []byte(`{"message":"Parâmetro ausente"}`))
	assert.Equal(t, "Parâmetro ausente", err.Message)
}

func TestStatusErrorFallsBackToStatusLine(t *testing.T) {
	err := StatusError(500, []byte("<html>boom</html>"))
	assert.Equal(t, ErrorUnstructured, err.Kind)
	assert.Contains(t, err.Message, "500")
	assert.Equal(t, "Erro HTTP: 500 - Internal Server Error", err.Message)

	err = StatusError(502, []byte(`{"error":{"code":1}}`))
	assert.Equal(t, ErrorUnstructured, err.Kind)
}

func TestStatusErrorReasonUsesServerPhrase(t *testing.T) {
	err := StatusErrorReason(503, "Manutenção programada", []byte("<html/>"))
	assert.Equal(t, ErrorUnstructured, err.Kind)
	assert.Equal(t, "Erro HTTP: 503 - Manutenção programada", err.Message)

	err = StatusErrorReason(404, "  ", nil)
	assert.Equal(t, "Erro HTTP: 404 - Not Found", err.Message)

	err = StatusErrorReason(400, "Bad Request", []byte(`{"error":"Ano inválido"}`))
	assert.Equal(t, ErrorStatus, err.Kind)
	assert.Equal(t, "Ano inválido", err.Message)
}

func TestReasonPhrase(t *testing.T) {
	assert.Equal(t, "I'm a teapot", ReasonPhrase("418 I'm a teapot"))
	assert.Equal(t, "Manutenção programada", ReasonPhrase(" 503  Manutenção programada "))
	assert.Empty(t, ReasonPhrase("599"))
	assert.Empty(t, ReasonPhrase(""))
	assert.Equal(t, "teapot", ReasonPhrase("teapot"))
}

func TestErrorMessageUnwrapsFetchErrors(t *testing.T) {
	base := TransportError(errors.New("dial tcp: refused"))
	wrapped := errors.Join(errors.New("outer"), base)
	assert.Equal(t, "Erro de conexão: dial tcp: refused", ErrorMessage(wrapped))
	assert.Equal(t, "plain", ErrorMessage(errors.New("plain")))
	assert.Empty(t, ErrorMessage(nil))
}

func TestDecodePayload(t *testing.T) {
	p, err := DecodePayload([]byte(`[{"Cidade":"Natal"},{"Cidade":"Mossoró"}]`))
	require.NoError(t, err)
	assert.Len(t, p.Data(), 2)

	p, err = DecodePayload([]byte(`{"data":[{"a":1}],"total_rows":"42","years":[2023,2024]}`))
	require.NoError(t, err)
	total, ok := p.TotalRows()
	assert.True(t, ok)
	assert.Equal(t, 42, total)
	assert.Equal(t, []string{"2023", "2024"}, p.Strings("years"))

	p, err = DecodePayload([]byte("  "))
	require.NoError(t, err)
	assert.Empty(t, p)
	_, ok = p.TotalRows()
	assert.False(t, ok)

	_, err = DecodePayload([]byte("{broken"))
	assert.Error(t, err)
}
