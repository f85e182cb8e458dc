package idutils

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
)

func TestGenerateSnowflakeId(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id, err := GenerateSnowflakeId()
		if isNoError := assert.NoError(t, err); !isNoError {
			t.FailNow()
		}
		assert.False(t, seen[id], "duplicate id %v", id)
		seen[id] = true

		_, err = snowflake.ParseString(id)
		assert.NoError(t, err)
	}
}

func TestGenerateUUID(t *testing.T) {
	assert.Len(t, GenerateUUID(), 36)
	assert.NotEqual(t, GenerateUUID(), GenerateUUID())
}
