package trace

import (
	"fmt"
	"sort"
)

// ExtractDeliveries reads the Deliver Package events of a log back into
// deliveries, ordered by delivery time. The quantity of each packaged item
// is its latest amount; its material is taken from the item or, if absent,
// from the nearest ancestor in the split lineage that carries one.
func ExtractDeliveries(log *Log) ([]Delivery, error) {
	objects := make(map[string]*Object, len(log.Objects))
	parent := make(map[string]string)
	for i := range log.Objects {
		o := &log.Objects[i]
		objects[o.ID] = o
		for _, r := range o.Relationships {
			if r.Qualifier == QualifierSplitRemain || r.Qualifier == QualifierSplitDeliver {
				parent[r.ObjectID] = o.ID
			}
		}
	}

	material := func(id string) (int, error) {
		for cur, hops := id, 0; cur != "" && hops <= len(objects); cur, hops = parent[cur], hops+1 {
			o, ok := objects[cur]
			if !ok {
				break
			}
			if v, ok := o.Latest("material_id"); ok {
				return intValue(v)
			}
		}
		return 0, fmt.Errorf("item %s: no material in lineage", id)
	}

	var out []Delivery
	for _, ev := range log.Events {
		if ev.Type != ActivityDeliverPackage {
			continue
		}
		for _, r := range ev.Relationships {
			pkg, ok := objects[r.ObjectID]
			if !ok || pkg.Type != ObjectPackage {
				continue
			}
			d := Delivery{Time: ev.Time.Time, PackageID: pkg.ID, Goods: make(map[int]int)}
			for _, pr := range pkg.Relationships {
				if pr.Qualifier != QualifierPackageOfItem {
					continue
				}
				item, ok := objects[pr.ObjectID]
				if !ok {
					return nil, fmt.Errorf("package %s: unknown item %s", pkg.ID, pr.ObjectID)
				}
				v, ok := item.Latest("amount")
				if !ok {
					return nil, fmt.Errorf("item %s: no amount", item.ID)
				}
				qty, err := intValue(v)
				if err != nil {
					return nil, fmt.Errorf("item %s amount: %w", item.ID, err)
				}
				mat, err := material(item.ID)
				if err != nil {
					return nil, err
				}
				d.Goods[mat] += qty
			}
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}
