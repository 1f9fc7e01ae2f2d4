package regions

import (
	"fmt"

	"github.com/leiwu/speiwatch/internal/geo"
)

// Tree selects the named parent region and its direct children from a flat
// boundary set. Children keep the order they appear in the file; ranking
// happens downstream on the computed statistics, not here.
func Tree(all []geo.Region, parentName string) (geo.Region, []geo.Region, error) {
	var parent *geo.Region
	for i := range all {
		if all[i].Name == parentName {
			parent = &all[i]
			break
		}
	}
	if parent == nil {
		return geo.Region{}, nil, fmt.Errorf("region %q not found", parentName)
	}

	var children []geo.Region
	for _, r := range all {
		if r.Parent == parentName {
			children = append(children, r)
		}
	}
	return *parent, children, nil
}
