package trade

import "strings"

// specificAssets is the asset reference type whose trades are keyed by their
// individual asset tickers.
const specificAssets = "Specific Asset(s)"

// assetSep joins sorted tickers inside a PrimaryKey. A unit separator cannot
// appear in ticker codes, so joined keys never collide.
const assetSep = "\x1f"

// PrimaryKey groups trades by asset reference so trades about different
// assets never compete for matching. For "Specific Asset(s)" the key carries
// the sorted asset set (HasAssets=true, empty Assets when none were listed);
// for every other reference type the asset part is null (HasAssets=false).
type PrimaryKey struct {
	AssetReferenceType string
	Assets             string
	HasAssets          bool
}

// GetPrimaryKey derives the grouping key for a trade. The key is independent
// of the input order of SpecificAssets.
func GetPrimaryKey(t *Trade) PrimaryKey {
	if t.AssetReferenceType == specificAssets {
		return PrimaryKey{
			AssetReferenceType: t.AssetReferenceType,
			Assets:             strings.Join(sortedCopy(t.SpecificAssets), assetSep),
			HasAssets:          true,
		}
	}
	return PrimaryKey{AssetReferenceType: t.AssetReferenceType}
}

// GroupByKey partitions trades by primary key, preserving the original
// relative order within each group.
func GroupByKey(trades []Trade) map[PrimaryKey][]Trade {
	grouped := make(map[PrimaryKey][]Trade)
	for _, t := range trades {
		key := GetPrimaryKey(&t)
		grouped[key] = append(grouped[key], t)
	}
	return grouped
}
