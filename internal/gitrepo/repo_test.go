package gitrepo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPatchByFile(t *testing.T) {
	patch := `diff --git a/db.go b/db.go
index 1111111..2222222 100644
--- a/db.go
+++ b/db.go
@@ -1,1 +1,2 @@
 package db
+func escape(s string) string { return s }
diff --git a/handler.go b/handler.go
index 3333333..4444444 100644
--- a/handler.go
+++ b/handler.go
@@ -5,1 +5,1 @@
-	render(raw)
+	render(escape(raw))
`

	files := splitPatchByFile(patch)
	require.Len(t, files, 2)

	assert.Contains(t, files["db.go"], "+func escape")
	assert.Contains(t, files["handler.go"], "+\trender(escape(raw))")
	assert.Contains(t, files["db.go"], "diff --git a/db.go b/db.go", "each section keeps its own headers")
}

func TestSplitPatchByFileDeletion(t *testing.T) {
	patch := `diff --git a/legacy.go b/legacy.go
deleted file mode 100644
index 5555555..0000000
--- a/legacy.go
+++ /dev/null
@@ -1,2 +0,0 @@
-package legacy
-var token = "s3cret"
`

	files := splitPatchByFile(patch)
	require.Len(t, files, 1)
	assert.Contains(t, files, "legacy.go", "deletions key on the pre-image path")
}

func TestSplitPatchByFileNewFile(t *testing.T) {
	patch := `diff --git a/new.go b/new.go
new file mode 100644
index 0000000..6666666
--- /dev/null
+++ b/new.go
@@ -0,0 +1,1 @@
+package new
`

	files := splitPatchByFile(patch)
	require.Len(t, files, 1)
	assert.Contains(t, files, "new.go")
}

func TestSplitPatchByFileEmpty(t *testing.T) {
	assert.Empty(t, splitPatchByFile(""))
	assert.Empty(t, splitPatchByFile("\n\n"))
}

func TestPatchSectionPath(t *testing.T) {
	assert.Equal(t, "internal/db/query.go", patchSectionPath("--- a/internal/db/query.go\n+++ b/internal/db/query.go\n"))
	assert.Equal(t, "gone.go", patchSectionPath("--- a/gone.go\n+++ /dev/null\n"))
	assert.Equal(t, "", patchSectionPath("no headers here"))
}
