package stores

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func rewriteSubstrArgs(t *testing.T, oldPrefix, newPrefix string) bson.A {
	t.Helper()
	pipeline := pathRewriteUpdate(oldPrefix, newPrefix, nil)
	require.Len(t, pipeline, 1)
	set, ok := pipeline[0][0].Value.(bson.M)
	require.True(t, ok)
	concat, ok := set["path"].(bson.M)["$concat"].(bson.A)
	require.True(t, ok)
	require.Len(t, concat, 2)
	assert.Equal(t, newPrefix, concat[0])
	substr, ok := concat[1].(bson.M)["$substrCP"].(bson.A)
	require.True(t, ok)
	require.Len(t, substr, 3)
	return substr
}

// $substrCP and $strLenCP count code points, so the prefix offset must be the
// rune count. A byte offset on a multi-byte name would start the remainder
// past the separator and glue the child name onto the new prefix.
func TestPathRewriteUpdateCountsCodePoints(t *testing.T) {
	substr := rewriteSubstrArgs(t, "/Équipe", "/Archive/Équipe")

	assert.Equal(t, 7, substr[1], "offset must be runes, not bytes")
	subtract := substr[2].(bson.M)["$subtract"].(bson.A)
	assert.Equal(t, bson.M{"$strLenCP": "$path"}, subtract[0])
	assert.Equal(t, 7, subtract[1])
}

func TestPathRewriteUpdateASCIIPrefix(t *testing.T) {
	substr := rewriteSubstrArgs(t, "/Eng/Projects", "/Eng/Archive/Projects")

	assert.Equal(t, 13, substr[1])
}

func TestPathRewriteUpdateSetsDepartment(t *testing.T) {
	deptID := primitive.NewObjectID()
	pipeline := pathRewriteUpdate("/Old", "/New", &deptID)
	set := pipeline[0][0].Value.(bson.M)

	assert.Equal(t, deptID, set["department_id"])
}
