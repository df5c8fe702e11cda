package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPersona_HighFormality(t *testing.T) {
	assert.True(t, PersonaBoss.HighFormality())
	assert.True(t, PersonaClient.HighFormality())
	assert.True(t, PersonaOfficial.HighFormality())
	assert.False(t, PersonaProfessor.HighFormality())
	assert.False(t, PersonaParent.HighFormality())
	assert.False(t, PersonaOther.HighFormality())
}
