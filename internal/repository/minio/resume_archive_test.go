package minio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectName(t *testing.T) {
	assert.Equal(t, "resumes/c1/cv.pdf", ObjectName("c1", "cv.pdf"))
	assert.Equal(t, "resumes/c1/cv.pdf", ObjectName("c1", "../../etc/cv.pdf"), "путь из имени файла отбрасывается")
	assert.Equal(t, "resumes/c1/cv.pdf", ObjectName("c1", `C:\Users\me\cv.pdf`))
	assert.Equal(t, "resumes/c1/resume", ObjectName("c1", ""))
}
