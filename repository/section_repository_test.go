package repository

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatVector(t *testing.T) {
	assert.Equal(t, "[]", formatVector(nil))
	assert.Equal(t, "[0.5,-1,0.25]", formatVector([]float32{0.5, -1, 0.25}))
	assert.Equal(t, "[0.1]", formatVector([]float32{0.1}))
}

func TestSectionSchema(t *testing.T) {
	stmts := SectionSchema(768, false)
	assert.Equal(t, "pgvector extension", stmts[0].Name)
	for _, st := range stmts {
		assert.NotContains(t, st.SQL, "DROP TABLE")
	}

	var table string
	for _, st := range stmts {
		if strings.Contains(st.SQL, "CREATE TABLE") {
			table = st.SQL
		}
	}
	assert.Contains(t, table, "bns_section_number TEXT PRIMARY KEY")
	assert.Contains(t, table, "keywords TEXT[]")
	assert.Contains(t, table, "embedding vector(768)")
}

func TestSectionSchema_Drop(t *testing.T) {
	stmts := SectionSchema(1536, true)
	assert.Equal(t, "drop crime_sections", stmts[1].Name)
	assert.Contains(t, stmts[2].SQL, "vector(1536)")
}
