package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCart(t *testing.T) (*Order, int64) {
	t.Helper()
	order := NewOrder(1, " CA-BC ", "cad")
	itemID, err := order.AddItem(ProductVariant{Code: "pizza", TaxCategoryCode: "food"}, 1000, 2)
	require.NoError(t, err)
	return order, itemID
}

func TestNewOrder_Normalizes(t *testing.T) {
	order := NewOrder(7, " FR ", "eur")
	assert.Equal(t, "fr", order.Zone)
	assert.Equal(t, "EUR", order.Currency)
	assert.Equal(t, StateCart, order.State)
	assert.Zero(t, order.Total())
	assert.Zero(t, order.TaxTotal())
}

func TestAddItem_CreatesUnits(t *testing.T) {
	order, itemID := newCart(t)

	assert.Equal(t, int64(1), itemID)
	assert.Equal(t, 2, order.Quantity(itemID))
	assert.Equal(t, int64(2000), order.ItemTotal(itemID))
	assert.Equal(t, int64(2000), order.Total())

	second, err := order.AddItem(ProductVariant{Code: "soda"}, 250, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), second)
	assert.Equal(t, int64(3), order.UnitsOf(second)[0].ID)
}

func TestAddItem_RejectsInvalidInput(t *testing.T) {
	order := NewOrder(1, "", "")

	_, err := order.AddItem(ProductVariant{Code: "x"}, -1, 1)
	require.ErrorIs(t, err, ErrInvalidUnitPrice)

	_, err = order.AddItem(ProductVariant{Code: "x"}, 100, 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = order.AddItem(ProductVariant{Code: " "}, 100, 1)
	require.ErrorIs(t, err, ErrEmptyVariantCode)
	assert.Empty(t, order.Items)
}

func TestSetItemQuantity_DropsAdjustmentsOfRemovedUnits(t *testing.T) {
	order, itemID := newCart(t)
	units := order.UnitsOf(itemID)
	for _, unit := range units {
		require.NoError(t, order.AddUnitAdjustment(unit.ID, Adjustment{ID: "a", Type: AdjustmentTax, Amount: 10}))
	}

	require.NoError(t, order.SetItemQuantity(itemID, 1))
	assert.Equal(t, 1, order.Quantity(itemID))
	assert.Len(t, order.AdjustmentsRecursively(AdjustmentTax), 1)

	require.NoError(t, order.SetItemQuantity(itemID, 3))
	assert.Equal(t, 3, order.Quantity(itemID))
	require.ErrorIs(t, order.SetItemQuantity(itemID, 0), ErrInvalidQuantity)
	require.ErrorIs(t, order.SetItemQuantity(99, 1), ErrItemNotFound)
}

func TestRemoveItem(t *testing.T) {
	order, itemID := newCart(t)
	unit := order.UnitsOf(itemID)[0]
	require.NoError(t, order.AddUnitAdjustment(unit.ID, Adjustment{Type: AdjustmentTax, Amount: 5}))
	require.NoError(t, order.AddAdjustment(Adjustment{Type: AdjustmentTip, Amount: 100}))

	require.NoError(t, order.RemoveItem(itemID))
	assert.Empty(t, order.Items)
	assert.Empty(t, order.Units)
	assert.Len(t, order.Adjustments, 1)
	assert.Equal(t, int64(100), order.Total())
	require.ErrorIs(t, order.RemoveItem(itemID), ErrItemNotFound)
}

func TestAdjustmentQueries(t *testing.T) {
	order, itemID := newCart(t)
	unit := order.UnitsOf(itemID)[0]

	require.NoError(t, order.AddAdjustment(Adjustment{Type: AdjustmentDelivery, Amount: 350}))
	require.NoError(t, order.AddAdjustment(Adjustment{Type: AdjustmentTax, Amount: 58, Neutral: true}))
	require.NoError(t, order.AddUnitAdjustment(unit.ID, Adjustment{Type: AdjustmentTax, Amount: 91, Neutral: true}))
	require.NoError(t, order.AddUnitAdjustment(unit.ID, Adjustment{Type: AdjustmentTax, Amount: 50}))

	assert.Len(t, order.AdjustmentsOf(AdjustmentTax), 1)
	assert.Len(t, order.AdjustmentsOf(""), 2)
	assert.Len(t, order.AdjustmentsRecursively(AdjustmentTax), 3)
	assert.Equal(t, int64(199), order.TaxTotal())
	assert.Equal(t, int64(2050), order.ItemTotal(itemID))
	assert.Equal(t, int64(350), order.AdjustmentsTotal())
	assert.Equal(t, int64(2400), order.Total())
}

func TestAddAdjustment_Rejects(t *testing.T) {
	order, _ := newCart(t)

	require.ErrorIs(t, order.AddAdjustment(Adjustment{Type: "bogus"}), ErrInvalidAdjustmentType)
	require.ErrorIs(t, order.AddAdjustment(Adjustment{Type: AdjustmentTax, Amount: -1}), ErrNegativeTax)
	require.ErrorIs(t, order.AddAdjustment(Adjustment{Type: AdjustmentDelivery, Amount: -1}), ErrNegativeTaxableAdjustment)
	require.ErrorIs(t, order.AddUnitAdjustment(42, Adjustment{Type: AdjustmentTax}), ErrUnitNotFound)
	require.NoError(t, order.AddAdjustment(Adjustment{Type: AdjustmentOrderPromotion, Amount: -200}))
	assert.Equal(t, int64(1800), order.Total())
}

func TestReplaceAdjustments_IsAtomic(t *testing.T) {
	order, itemID := newCart(t)
	unit := order.UnitsOf(itemID)[0]
	require.NoError(t, order.AddUnitAdjustment(unit.ID, Adjustment{ID: "old", Type: AdjustmentTax, Amount: 1, Source: "x"}))

	isTax := func(a Adjustment) bool { return a.Type == AdjustmentTax }
	err := order.ReplaceAdjustments(isTax, []Adjustment{
		{ID: "new", Type: AdjustmentTax, Amount: 2, Owner: UnitOwner(unit.ID)},
		{ID: "bad", Type: AdjustmentTax, Amount: 2, Owner: UnitOwner(999)},
	})
	require.ErrorIs(t, err, ErrUnitNotFound)
	require.Len(t, order.Adjustments, 1)
	assert.Equal(t, "old", order.Adjustments[0].ID)

	require.NoError(t, order.ReplaceAdjustments(isTax, []Adjustment{{ID: "new", Type: AdjustmentTax, Amount: 2, Owner: UnitOwner(unit.ID)}}))
	require.Len(t, order.Adjustments, 1)
	assert.Equal(t, "new", order.Adjustments[0].ID)
}

func TestFinalize_MakesOrderReadOnly(t *testing.T) {
	order, itemID := newCart(t)
	require.NoError(t, order.Finalize())

	require.ErrorIs(t, order.Finalize(), ErrOrderFinalized)
	_, err := order.AddItem(ProductVariant{Code: "x"}, 1, 1)
	require.ErrorIs(t, err, ErrOrderFinalized)
	require.ErrorIs(t, order.SetItemQuantity(itemID, 4), ErrOrderFinalized)
	require.ErrorIs(t, order.AddAdjustment(Adjustment{Type: AdjustmentTip}), ErrOrderFinalized)
	require.ErrorIs(t, order.ReplaceAdjustments(nil, nil), ErrOrderFinalized)
}

func TestValidate(t *testing.T) {
	order, itemID := newCart(t)
	require.NoError(t, order.Validate())

	broken := order.Clone()
	broken.Items[0].UnitPrice = -5
	require.ErrorIs(t, broken.Validate(), ErrInvalidUnitPrice)
	assert.Equal(t, int64(1000), order.Items[0].UnitPrice)

	broken = order.Clone()
	broken.Units = nil
	require.ErrorIs(t, broken.Validate(), ErrInvalidQuantity)

	broken = order.Clone()
	broken.Units = append(broken.Units, OrderItemUnit{ID: 50, ItemID: itemID + 10})
	require.ErrorIs(t, broken.Validate(), ErrItemNotFound)

	broken = order.Clone()
	broken.Adjustments = append(broken.Adjustments, Adjustment{Type: AdjustmentReusablePackaging, Amount: -3, Owner: OrderOwner()})
	require.ErrorIs(t, broken.Validate(), ErrNegativeTaxableAdjustment)
}

func TestAdjustmentFactory(t *testing.T) {
	factory := NewAdjustmentFactory()
	a := factory.Create(AdjustmentTax, 91, true, "VAT")
	b := factory.Create(AdjustmentTax, 91, true, "VAT")

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.True(t, a.Neutral)
	assert.True(t, a.OnOrder())

	var zero AdjustmentFactory
	assert.NotEmpty(t, zero.Create(AdjustmentTip, 1, false, "").ID)
}

func TestAdjustmentType(t *testing.T) {
	assert.True(t, AdjustmentDelivery.Taxable())
	assert.True(t, AdjustmentReusablePackaging.Taxable())
	assert.False(t, AdjustmentTip.Taxable())
	assert.False(t, AdjustmentTax.Taxable())

	parsed, err := ParseAdjustmentType(" Delivery ")
	require.NoError(t, err)
	assert.Equal(t, AdjustmentDelivery, parsed)
	_, err = ParseAdjustmentType("shipping")
	require.ErrorIs(t, err, ErrInvalidAdjustmentType)
}
