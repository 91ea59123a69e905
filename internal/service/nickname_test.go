package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateNickname(t *testing.T) {
	for i := 0; i < 50; i++ {
		nick := GenerateNickname()
		assert.NoError(t, ValidateNickname(nick), nick)
	}
}

func TestValidateNickname(t *testing.T) {
	assert.NoError(t, ValidateNickname("john_doe-1"))
	assert.Error(t, ValidateNickname("jd"))
	assert.Error(t, ValidateNickname("john doe"))
	assert.Error(t, ValidateNickname("john@doe"))
}
