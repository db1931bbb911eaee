package core

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/nyantunes/nyantunes/internal/engine/types"
	"github.com/nyantunes/nyantunes/internal/utils"
)

// diskFree reports free bytes on the filesystem holding path.
var diskFree = func(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}

// ensureSpace fails with ErrNoSpace when dir cannot hold need bytes. A
// filesystem that cannot be queried is not treated as full.
func ensureSpace(dir string, need int) error {
	free, err := diskFree(dir)
	if err != nil {
		utils.Debug("Could not query free space for %s: %v", dir, err)
		return nil
	}
	if uint64(need) > free {
		return fmt.Errorf("%w: need %s, %s free in %s", types.ErrNoSpace,
			humanize.IBytes(uint64(need)), humanize.IBytes(free), dir)
	}
	return nil
}
