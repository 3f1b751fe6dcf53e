package smartupdate

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Scan inspects every path; directories contribute the files directly inside
// them. Files that are not packages are skipped and only logged at debug
// level. The result is sorted by file name.
func (in *Inspector) Scan(paths []string) []*Metadata {
	var skipped *multierror.Error
	var found []*Metadata

	for _, file := range expand(paths, &skipped) {
		m, err := in.Inspect(file)
		if err != nil {
			skipped = multierror.Append(skipped, err)
			continue
		}
		found = append(found, m)
	}

	if err := skipped.ErrorOrNil(); err != nil {
		log.Debug().Int("skipped", skipped.Len()).Msg(err.Error())
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].FileName < found[j].FileName })
	return found
}

func expand(paths []string, skipped **multierror.Error) []string {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			*skipped = multierror.Append(*skipped, errors.Wrap(err, "failed to stat"))
			continue
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			*skipped = multierror.Append(*skipped, errors.Wrapf(err, "failed to read %s", p))
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				files = append(files, filepath.Join(p, e.Name()))
			}
		}
	}
	return files
}
