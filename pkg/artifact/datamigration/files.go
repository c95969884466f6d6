package datamigration

import (
	"fmt"
	"regexp"
	"strings"
)

// File is a rendered migration file.
type File struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

var nonWord = regexp.MustCompile(`[^a-z0-9]+`)

// Files renders the script as golang-migrate style up and down files,
// numbered from version. Each reversible step gets a pair; the backfill
// step gets an up file and a down file that only documents the restore.
func (s *Script) Files(version int) []File {
	files := make([]File, 0, 2*len(s.Steps))
	for i, st := range s.Steps {
		base := fmt.Sprintf("%04d_%s_%s", version+i, slug(s.Name), st.Name)
		down := st.RollbackSQL
		switch {
		case !st.Reversible:
			down = fmt.Sprintf("-- %s is not reversible; restore from the backup table if needed\n", st.Name)
		case down == "":
			down = "-- nothing to undo\n"
		default:
			down += "\n"
		}
		files = append(files,
			File{Name: base + ".up.sql", Content: header(s, st) + st.SQL + "\n"},
			File{Name: base + ".down.sql", Content: down},
		)
	}
	return files
}

func header(s *Script, st Step) string {
	return fmt.Sprintf("-- %s: step %d %s\n-- %s\n", s.Name, st.Order, st.Name, st.Description)
}

func slug(name string) string {
	out := strings.Trim(nonWord.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if out == "" {
		return "migration"
	}
	return out
}
