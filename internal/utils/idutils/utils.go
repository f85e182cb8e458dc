package idutils

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	sfNode     *snowflake.Node
	sfNodeErr  error
	sfNodeOnce sync.Once
)

// GenerateSnowflakeId generates a time-ordered ID. IDs from the same process never collide.
func GenerateSnowflakeId() (string, error) {
	sfNodeOnce.Do(func() {
		sfNode, sfNodeErr = snowflake.NewNode(1)
	})
	if sfNodeErr != nil {
		return "", errors.Wrap(sfNodeErr, "无法生成 ID")
	}

	id := sfNode.Generate().String()
	return id, nil
}

// GenerateUUID generates a random ID used to correlate log lines of one request.
func GenerateUUID() string {
	return uuid.NewString()
}
