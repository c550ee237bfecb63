package revenue

import "strconv"

// ProductKey identifies the aggregation bucket a payment belongs to. Keys are
// namespaced by how much we actually know: a bare number is a canonical
// catalog id, everything weaker carries a prefix.
type ProductKey string

// UnmatchedKey is the bucket for payments with no derivable product linkage.
const UnmatchedKey ProductKey = "unmatched"

// CatalogKey builds a key from a canonical catalog id.
func CatalogKey(id int64) ProductKey {
	return ProductKey(strconv.FormatInt(id, 10))
}

// CRMKey builds a namespaced key from a non-numeric legacy CRM product id.
func CRMKey(id string) ProductKey {
	return ProductKey("crm:" + id)
}

// NameKey builds a key from a normalized free-text product name.
func NameKey(normalized string) ProductKey {
	return ProductKey("name:" + normalized)
}

// EventFallbackKey builds a key for a ticketed-event line item that resolved
// to no catalog product.
func EventFallbackKey(normalized string) ProductKey {
	return ProductKey("event:" + normalized)
}

// KeyResolution is the outcome of running the matcher chain for one payment.
type KeyResolution struct {
	Key       ProductKey
	ProductID int64 // resolved catalog id, 0 when none attached
	Name      string
	Matched   bool
}

// ProductLink is a row of the gateway's product cross-reference link table.
// A link may or may not specify a catalog id.
type ProductLink struct {
	ID        int64
	ProductID int64
	Name      string
}

// ResolveContext carries everything key resolution needs for one report
// computation: the indexed catalog, the preloaded gateway link rows, the
// resolved proformas, and the name-keyed resolutions recorded so far. It is
// request-scoped; nothing in it outlives a single report.
type ResolveContext struct {
	Catalog   *Catalog
	Links     map[int64]ProductLink
	Proformas map[int64]*Proforma

	byName map[string]KeyResolution
}

// NewResolveContext builds a resolve context over the given request-scoped data.
func NewResolveContext(catalog *Catalog, links map[int64]ProductLink, proformas map[int64]*Proforma) *ResolveContext {
	if catalog == nil {
		catalog = NewCatalog(nil)
	}
	if links == nil {
		links = map[int64]ProductLink{}
	}
	if proformas == nil {
		proformas = map[int64]*Proforma{}
	}
	return &ResolveContext{
		Catalog:   catalog,
		Links:     links,
		Proformas: proformas,
		byName:    make(map[string]KeyResolution),
	}
}

// Record remembers a resolution under its normalized display name so that
// later payments referencing the same name land in the same bucket. The first
// resolution carrying a catalog id wins over an id-less one.
func (rc *ResolveContext) Record(res KeyResolution) {
	if !res.Matched || res.Name == "" {
		return
	}
	norm := NormalizeName(res.Name)
	prev, seen := rc.byName[norm]
	if !seen || (prev.ProductID == 0 && res.ProductID != 0) {
		rc.byName[norm] = res
	}
}

// ResolutionByName returns an earlier resolution recorded under the given
// normalized name.
func (rc *ResolveContext) ResolutionByName(normalized string) (KeyResolution, bool) {
	res, ok := rc.byName[normalized]
	return res, ok
}

// Matcher is one step of the ordered product-key resolution chain. It either
// resolves the payment or reports false to let the next matcher try.
type Matcher func(p Payment, rc *ResolveContext) (KeyResolution, bool)

// MatcherChain returns the matchers in strict priority order. Resolution stops
// at the first success; the order is the contract.
func MatcherChain() []Matcher {
	return []Matcher{
		matchCatalogID,
		matchSessionLink,
		matchCRMProduct,
		matchMetadataName,
		matchEventItem,
		matchProformaProduct,
	}
}

// ResolveProductKey runs the matcher chain for a payment and falls back to
// the unmatched bucket when nothing fires. The successful resolution is
// recorded in the context for name-based reuse.
func ResolveProductKey(p Payment, rc *ResolveContext) KeyResolution {
	for _, match := range MatcherChain() {
		if res, ok := match(p, rc); ok {
			rc.Record(res)
			return res
		}
	}
	return KeyResolution{Key: UnmatchedKey, Name: "Unmatched", Matched: false}
}

// matchCatalogID resolves a payment that carries a direct catalog product id.
func matchCatalogID(p Payment, rc *ResolveContext) (KeyResolution, bool) {
	id := p.Hints.ProductID
	if id <= 0 {
		return KeyResolution{}, false
	}
	name := p.Hints.ProductName
	if product, ok := rc.Catalog.ByID(id); ok {
		name = product.Name
	}
	if name == "" {
		name = p.Description
	}
	return KeyResolution{Key: CatalogKey(id), ProductID: id, Name: name, Matched: true}, true
}

// matchSessionLink resolves a gateway-session payment through its
// cross-reference link row. A link with a catalog id wins outright; an
// id-less link reuses an existing bucket with the same normalized name before
// falling back to a name-derived key.
func matchSessionLink(p Payment, rc *ResolveContext) (KeyResolution, bool) {
	if p.Source != SourceGatewaySession || p.Hints.LinkID <= 0 {
		return KeyResolution{}, false
	}
	link, ok := rc.Links[p.Hints.LinkID]
	if !ok {
		return KeyResolution{}, false
	}
	if link.ProductID > 0 {
		name := link.Name
		if product, found := rc.Catalog.ByID(link.ProductID); found {
			name = product.Name
		}
		return KeyResolution{Key: CatalogKey(link.ProductID), ProductID: link.ProductID, Name: name, Matched: true}, true
	}
	norm := NormalizeName(link.Name)
	if norm == "" {
		return KeyResolution{}, false
	}
	if res, found := rc.ResolutionByName(norm); found {
		return res, true
	}
	return KeyResolution{Key: NameKey(norm), Name: link.Name, Matched: true}, true
}

// matchCRMProduct resolves a legacy CRM product id: numeric ids are treated
// as catalog ids, anything else gets a namespaced CRM key.
func matchCRMProduct(p Payment, rc *ResolveContext) (KeyResolution, bool) {
	crmID := p.Hints.CRMProductID
	if crmID == "" {
		return KeyResolution{}, false
	}
	if id, err := strconv.ParseInt(crmID, 10, 64); err == nil && id > 0 {
		name := p.Hints.ProductName
		if product, ok := rc.Catalog.ByID(id); ok {
			name = product.Name
		}
		if name == "" {
			name = crmID
		}
		return KeyResolution{Key: CatalogKey(id), ProductID: id, Name: name, Matched: true}, true
	}
	name := p.Hints.ProductName
	if name == "" {
		name = crmID
	}
	return KeyResolution{Key: CRMKey(crmID), Name: name, Matched: true}, true
}

// matchMetadataName resolves a payment by the free-text product name carried
// in gateway metadata.
func matchMetadataName(p Payment, rc *ResolveContext) (KeyResolution, bool) {
	name := p.Hints.ProductName
	if name == "" {
		return KeyResolution{}, false
	}
	norm := NormalizeName(name)
	if norm == "" {
		return KeyResolution{}, false
	}
	return KeyResolution{Key: NameKey(norm), Name: name, Matched: true}, true
}

// matchEventItem resolves a ticketed-event line item by containment match of
// its event key, then its human label, against catalog names. Items matching
// no catalog entry still get a group of their own under an event key.
func matchEventItem(p Payment, rc *ResolveContext) (KeyResolution, bool) {
	if p.Source != SourceGatewayEvent {
		return KeyResolution{}, false
	}
	if product, ok := rc.Catalog.MatchEventKey(p.Hints.EventKey); ok {
		return KeyResolution{Key: CatalogKey(product.ID), ProductID: product.ID, Name: product.Name, Matched: true}, true
	}
	if product, ok := rc.Catalog.MatchEventKey(p.Hints.EventLabel); ok {
		return KeyResolution{Key: CatalogKey(product.ID), ProductID: product.ID, Name: product.Name, Matched: true}, true
	}
	label := p.Hints.EventLabel
	if label == "" {
		label = p.Hints.EventKey
	}
	norm := NormalizeName(label)
	if norm == "" {
		return KeyResolution{}, false
	}
	return KeyResolution{Key: EventFallbackKey(norm), Name: label, Matched: true}, true
}

// matchProformaProduct is the last resort: the linked proforma's own product
// reference.
func matchProformaProduct(p Payment, rc *ResolveContext) (KeyResolution, bool) {
	if p.ProformaID <= 0 {
		return KeyResolution{}, false
	}
	pf, ok := rc.Proformas[p.ProformaID]
	if !ok {
		return KeyResolution{}, false
	}
	if pf.ProductID > 0 {
		name := pf.ProductName
		if product, found := rc.Catalog.ByID(pf.ProductID); found {
			name = product.Name
		}
		return KeyResolution{Key: CatalogKey(pf.ProductID), ProductID: pf.ProductID, Name: name, Matched: true}, true
	}
	if pf.ProductName != "" {
		norm := NormalizeName(pf.ProductName)
		return KeyResolution{Key: NameKey(norm), Name: pf.ProductName, Matched: true}, true
	}
	return KeyResolution{}, false
}
