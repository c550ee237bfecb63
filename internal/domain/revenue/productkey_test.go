package revenue

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolveCtx() *ResolveContext {
	return NewResolveContext(
		testCatalog(),
		map[int64]ProductLink{
			100: {ID: 100, ProductID: 2, Name: "kurs"},
			101: {ID: 101, Name: "Warsztaty oddechowe"},
		},
		map[int64]*Proforma{
			500: {ID: 500, ProductID: 3, ProductName: "Czarna Stodoła"},
			501: {ID: 501, ProductName: "Konsultacja indywidualna"},
		},
	)
}

func gatewayPayment(hints ProductHints) Payment {
	return Payment{
		ID:       "pay_1",
		Date:     time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		Amount:   decimal.NewFromInt(100),
		Currency: "PLN",
		Source:   SourceGatewaySession,
		Hints:    hints,
	}
}

func TestResolveProductKeyPriorityOrder(t *testing.T) {
	t.Run("direct catalog id wins over everything", func(t *testing.T) {
		p := gatewayPayment(ProductHints{ProductID: 2, LinkID: 101, CRMProductID: "x1", ProductName: "Inna nazwa"})
		res := ResolveProductKey(p, resolveCtx())
		assert.Equal(t, CatalogKey(2), res.Key)
		assert.Equal(t, int64(2), res.ProductID)
		assert.Equal(t, "Kurs zaawansowany", res.Name)
		assert.True(t, res.Matched)
	})

	t.Run("link with catalog id resolves to catalog key", func(t *testing.T) {
		p := gatewayPayment(ProductHints{LinkID: 100, ProductName: "ignored"})
		res := ResolveProductKey(p, resolveCtx())
		assert.Equal(t, CatalogKey(2), res.Key)
		assert.Equal(t, int64(2), res.ProductID)
	})

	t.Run("link without catalog id falls to name key", func(t *testing.T) {
		p := gatewayPayment(ProductHints{LinkID: 101})
		res := ResolveProductKey(p, resolveCtx())
		assert.Equal(t, NameKey("warsztaty oddechowe"), res.Key)
		assert.Zero(t, res.ProductID)
	})

	t.Run("link name reuses earlier id-keyed resolution", func(t *testing.T) {
		rc := resolveCtx()
		rc.Record(KeyResolution{Key: CatalogKey(7), ProductID: 7, Name: "Warsztaty oddechowe", Matched: true})

		p := gatewayPayment(ProductHints{LinkID: 101})
		res := ResolveProductKey(p, rc)
		assert.Equal(t, CatalogKey(7), res.Key)
		assert.Equal(t, int64(7), res.ProductID)
	})

	t.Run("unknown link id falls through to metadata name", func(t *testing.T) {
		p := gatewayPayment(ProductHints{LinkID: 999, ProductName: "Sesja mentoringowa"})
		res := ResolveProductKey(p, resolveCtx())
		assert.Equal(t, NameKey("sesja mentoringowa"), res.Key)
	})

	t.Run("numeric crm id becomes catalog key", func(t *testing.T) {
		p := gatewayPayment(ProductHints{CRMProductID: "3"})
		res := ResolveProductKey(p, resolveCtx())
		assert.Equal(t, CatalogKey(3), res.Key)
		assert.Equal(t, "Czarna Stodoła", res.Name)
	})

	t.Run("non-numeric crm id gets namespaced key", func(t *testing.T) {
		p := gatewayPayment(ProductHints{CRMProductID: "crm-abc"})
		res := ResolveProductKey(p, resolveCtx())
		assert.Equal(t, CRMKey("crm-abc"), res.Key)
	})

	t.Run("metadata name gets name key", func(t *testing.T) {
		p := gatewayPayment(ProductHints{ProductName: "Pakiet  VIP"})
		res := ResolveProductKey(p, resolveCtx())
		assert.Equal(t, NameKey("pakiet vip"), res.Key)
	})

	t.Run("proforma product is last resort", func(t *testing.T) {
		p := gatewayPayment(ProductHints{})
		p.ProformaID = 500
		res := ResolveProductKey(p, resolveCtx())
		assert.Equal(t, CatalogKey(3), res.Key)
	})

	t.Run("proforma without product id uses its name", func(t *testing.T) {
		p := gatewayPayment(ProductHints{})
		p.ProformaID = 501
		res := ResolveProductKey(p, resolveCtx())
		assert.Equal(t, NameKey("konsultacja indywidualna"), res.Key)
	})

	t.Run("nothing derivable buckets as unmatched", func(t *testing.T) {
		p := gatewayPayment(ProductHints{})
		res := ResolveProductKey(p, resolveCtx())
		assert.Equal(t, UnmatchedKey, res.Key)
		assert.False(t, res.Matched)
	})
}

func TestResolveProductKeyEventItems(t *testing.T) {
	eventPayment := func(hints ProductHints) Payment {
		p := gatewayPayment(hints)
		p.Source = SourceGatewayEvent
		return p
	}

	t.Run("event key containment resolves to catalog product", func(t *testing.T) {
		p := eventPayment(ProductHints{EventKey: "NY2026", EventLabel: "Sylwester bilet normalny"})
		res := ResolveProductKey(p, resolveCtx())
		require.True(t, res.Matched)
		assert.Equal(t, CatalogKey(1), res.Key)
		assert.Equal(t, "Sylwester NY2026 w górach", res.Name)
	})

	// Regression from production: the event key must not be grouped with an
	// unrelated property through a stray normalized-key collision.
	t.Run("event key never lands on unrelated product", func(t *testing.T) {
		p := eventPayment(ProductHints{EventKey: "NY2026"})
		res := ResolveProductKey(p, resolveCtx())
		assert.NotEqual(t, "Czarna Stodoła", res.Name)
		assert.Equal(t, int64(1), res.ProductID)
	})

	t.Run("label containment tried after event key", func(t *testing.T) {
		p := eventPayment(ProductHints{EventKey: "XX-UNKNOWN", EventLabel: "Czarna Stodoła weekend"})
		res := ResolveProductKey(p, resolveCtx())
		// Label "Czarna Stodoła weekend" is not contained in any catalog
		// name, but the catalog name is not required to contain the whole
		// label either - no match here, falls to the event fallback key.
		assert.Equal(t, EventFallbackKey("czarna stodola weekend"), res.Key)
		assert.Zero(t, res.ProductID)
	})

	t.Run("unresolved event keeps its own bucket", func(t *testing.T) {
		p := eventPayment(ProductHints{EventKey: "FEST2027", EventLabel: "Festiwal letni"})
		res := ResolveProductKey(p, resolveCtx())
		assert.Equal(t, EventFallbackKey("festiwal letni"), res.Key)
		assert.True(t, res.Matched)
	})

	t.Run("event falls back to key when label empty", func(t *testing.T) {
		p := eventPayment(ProductHints{EventKey: "FEST2027"})
		res := ResolveProductKey(p, resolveCtx())
		assert.Equal(t, EventFallbackKey("fest2027"), res.Key)
	})
}

func TestResolveContextRecord(t *testing.T) {
	rc := NewResolveContext(NewCatalog(nil), nil, nil)

	nameOnly := KeyResolution{Key: NameKey("warsztaty"), Name: "Warsztaty", Matched: true}
	withID := KeyResolution{Key: CatalogKey(4), ProductID: 4, Name: "Warsztaty", Matched: true}

	rc.Record(nameOnly)
	got, ok := rc.ResolutionByName("warsztaty")
	require.True(t, ok)
	assert.Equal(t, nameOnly.Key, got.Key)

	// A later id-carrying resolution upgrades the record.
	rc.Record(withID)
	got, _ = rc.ResolutionByName("warsztaty")
	assert.Equal(t, CatalogKey(4), got.Key)

	// But an id-less resolution never downgrades it back.
	rc.Record(nameOnly)
	got, _ = rc.ResolutionByName("warsztaty")
	assert.Equal(t, CatalogKey(4), got.Key)

	// Unmatched resolutions are not recorded.
	rc.Record(KeyResolution{Key: UnmatchedKey, Name: "x", Matched: false})
	_, ok = rc.ResolutionByName("x")
	assert.False(t, ok)
}
