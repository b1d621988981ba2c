package checkout

import (
	"path/filepath"
	"sync"
	"testing"

	"ecofinds/internal/db"
	"ecofinds/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "checkout.db") + "?_pragma=busy_timeout(10000)"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// sqlite allows one writer; a single pooled connection keeps
	// concurrent transactions from tripping over the file lock
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(gdb))
	return gdb
}

func seedUser(t *testing.T, gdb *gorm.DB, username string) *domain.User {
	t.Helper()
	u := &domain.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		FirstName:    "Test",
		LastName:     "User",
	}
	require.NoError(t, gdb.Create(u).Error)
	return u
}

func seedProduct(t *testing.T, gdb *gorm.DB, sellerID uint, price float64) *domain.Product {
	t.Helper()
	cat := &domain.Category{Name: "Electronics-" + t.Name()}
	if err := gdb.Where("name = ?", cat.Name).First(cat).Error; err != nil {
		require.NoError(t, gdb.Create(cat).Error)
	}
	p := &domain.Product{
		SellerID:    sellerID,
		CategoryID:  cat.ID,
		Title:       "Test Listing",
		Description: "A listing used by tests",
		Price:       price,
		Condition:   "good",
	}
	require.NoError(t, gdb.Create(p).Error)
	return p
}

func TestCheckout_SingleLine_CreatesPendingPurchase(t *testing.T) {
	gdb := setupDB(t)
	seller := seedUser(t, gdb, "seller")
	buyer := seedUser(t, gdb, "buyer")
	product := seedProduct(t, gdb, seller.ID, 5.00)

	receipts, err := Checkout(gdb, buyer.ID, []Line{{ProductID: product.ID, Quantity: 2}}, "12 Green St", "card", "")
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, product.ID, receipts[0].ProductID)
	assert.Equal(t, 2, receipts[0].Quantity)
	assert.Equal(t, 10.00, receipts[0].TotalAmount)
	assert.NotEmpty(t, receipts[0].OrderRef)

	var purchase domain.Purchase
	require.NoError(t, gdb.First(&purchase, receipts[0].PurchaseID).Error)
	assert.Equal(t, domain.StatusPending, purchase.Status)
	assert.Equal(t, buyer.ID, purchase.BuyerID)
	assert.Equal(t, seller.ID, purchase.SellerID)
	assert.Equal(t, 10.00, purchase.TotalAmount)

	var got domain.Product
	require.NoError(t, gdb.First(&got, product.ID).Error)
	assert.True(t, got.IsSold)
}

func TestCheckout_ClearsEntireCart(t *testing.T) {
	gdb := setupDB(t)
	seller := seedUser(t, gdb, "seller")
	buyer := seedUser(t, gdb, "buyer")
	bought := seedProduct(t, gdb, seller.ID, 5.00)
	unbought := seedProduct(t, gdb, seller.ID, 9.00)

	require.NoError(t, gdb.Create(&domain.CartItem{UserID: buyer.ID, ProductID: bought.ID, Quantity: 1}).Error)
	require.NoError(t, gdb.Create(&domain.CartItem{UserID: buyer.ID, ProductID: unbought.ID, Quantity: 1}).Error)

	_, err := Checkout(gdb, buyer.ID, []Line{{ProductID: bought.ID, Quantity: 1}}, "12 Green St", "card", "")
	require.NoError(t, err)

	// Every cart row of the buyer is gone, including the line that was
	// not part of the purchase
	var count int64
	require.NoError(t, gdb.Model(&domain.CartItem{}).Where("user_id = ?", buyer.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCheckout_AlreadySold_ReturnsConflict(t *testing.T) {
	gdb := setupDB(t)
	seller := seedUser(t, gdb, "seller")
	buyer := seedUser(t, gdb, "buyer")
	product := seedProduct(t, gdb, seller.ID, 5.00)
	require.NoError(t, gdb.Model(product).Update("is_sold", true).Error)

	_, err := Checkout(gdb, buyer.ID, []Line{{ProductID: product.ID, Quantity: 1}}, "12 Green St", "card", "")
	require.ErrorIs(t, err, ErrConflict)

	var count int64
	require.NoError(t, gdb.Model(&domain.Purchase{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCheckout_OwnProduct_ReturnsInvalidOperation(t *testing.T) {
	gdb := setupDB(t)
	seller := seedUser(t, gdb, "seller")
	product := seedProduct(t, gdb, seller.ID, 5.00)

	_, err := Checkout(gdb, seller.ID, []Line{{ProductID: product.ID, Quantity: 1}}, "12 Green St", "card", "")
	require.ErrorIs(t, err, ErrInvalidOperation)
}

func TestCheckout_MissingProduct_ReturnsNotFound(t *testing.T) {
	gdb := setupDB(t)
	buyer := seedUser(t, gdb, "buyer")

	_, err := Checkout(gdb, buyer.ID, []Line{{ProductID: 999, Quantity: 1}}, "12 Green St", "card", "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCheckout_SoftDeletedProduct_ReturnsNotFound(t *testing.T) {
	gdb := setupDB(t)
	seller := seedUser(t, gdb, "seller")
	buyer := seedUser(t, gdb, "buyer")
	product := seedProduct(t, gdb, seller.ID, 5.00)
	require.NoError(t, gdb.Delete(product).Error)

	_, err := Checkout(gdb, buyer.ID, []Line{{ProductID: product.ID, Quantity: 1}}, "12 Green St", "card", "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCheckout_InputValidation(t *testing.T) {
	gdb := setupDB(t)
	seller := seedUser(t, gdb, "seller")
	buyer := seedUser(t, gdb, "buyer")
	product := seedProduct(t, gdb, seller.ID, 5.00)

	_, err := Checkout(gdb, buyer.ID, nil, "12 Green St", "card", "")
	require.ErrorIs(t, err, ErrInvalidOperation)

	_, err = Checkout(gdb, buyer.ID, []Line{{ProductID: product.ID, Quantity: 1}}, "", "card", "")
	require.ErrorIs(t, err, ErrInvalidOperation)

	_, err = Checkout(gdb, buyer.ID, []Line{{ProductID: product.ID, Quantity: 1}}, "12 Green St", "", "")
	require.ErrorIs(t, err, ErrInvalidOperation)

	_, err = Checkout(gdb, buyer.ID, []Line{{ProductID: product.ID, Quantity: 0}}, "12 Green St", "card", "")
	require.ErrorIs(t, err, ErrInvalidOperation)
}

func TestCheckout_MultiLine_FailureRollsBackEverything(t *testing.T) {
	gdb := setupDB(t)
	seller := seedUser(t, gdb, "seller")
	buyer := seedUser(t, gdb, "buyer")
	good := seedProduct(t, gdb, seller.ID, 5.00)
	sold := seedProduct(t, gdb, seller.ID, 7.00)
	require.NoError(t, gdb.Model(sold).Update("is_sold", true).Error)

	require.NoError(t, gdb.Create(&domain.CartItem{UserID: buyer.ID, ProductID: good.ID, Quantity: 1}).Error)

	lines := []Line{
		{ProductID: good.ID, Quantity: 1},
		{ProductID: sold.ID, Quantity: 1},
	}
	_, err := Checkout(gdb, buyer.ID, lines, "12 Green St", "card", "")
	require.ErrorIs(t, err, ErrConflict)

	// The first line must not have committed
	var got domain.Product
	require.NoError(t, gdb.First(&got, good.ID).Error)
	assert.False(t, got.IsSold)

	var purchases int64
	require.NoError(t, gdb.Model(&domain.Purchase{}).Count(&purchases).Error)
	assert.Zero(t, purchases)

	// Cart was not cleared either
	var cartRows int64
	require.NoError(t, gdb.Model(&domain.CartItem{}).Where("user_id = ?", buyer.ID).Count(&cartRows).Error)
	assert.EqualValues(t, 1, cartRows)
}

func TestCheckout_Concurrent_ExactlyOneWins(t *testing.T) {
	gdb := setupDB(t)
	seller := seedUser(t, gdb, "seller")
	alice := seedUser(t, gdb, "alice")
	bob := seedUser(t, gdb, "bob")
	product := seedProduct(t, gdb, seller.ID, 5.00)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	for i, buyer := range []uint{alice.ID, bob.ID} {
		go func(i int, buyerID uint) {
			defer wg.Done()
			_, errs[i] = Checkout(gdb, buyerID, []Line{{ProductID: product.ID, Quantity: 1}}, "12 Green St", "card", "")
		}(i, buyer)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		default:
			conflicts++
			assert.ErrorIs(t, err, ErrConflict)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, conflicts)

	var purchases int64
	require.NoError(t, gdb.Model(&domain.Purchase{}).Count(&purchases).Error)
	assert.EqualValues(t, 1, purchases)

	var got domain.Product
	require.NoError(t, gdb.First(&got, product.ID).Error)
	assert.True(t, got.IsSold)
}

func TestBuyerCancel_RestoresAvailability(t *testing.T) {
	gdb := setupDB(t)
	seller := seedUser(t, gdb, "seller")
	buyer := seedUser(t, gdb, "buyer")
	product := seedProduct(t, gdb, seller.ID, 5.00)

	receipts, err := Checkout(gdb, buyer.ID, []Line{{ProductID: product.ID, Quantity: 1}}, "12 Green St", "card", "")
	require.NoError(t, err)

	require.NoError(t, BuyerCancel(gdb, receipts[0].PurchaseID, buyer.ID, "changed my mind"))

	var purchase domain.Purchase
	require.NoError(t, gdb.First(&purchase, receipts[0].PurchaseID).Error)
	assert.Equal(t, domain.StatusCancelled, purchase.Status)
	assert.Equal(t, "changed my mind", purchase.Notes)

	var got domain.Product
	require.NoError(t, gdb.First(&got, product.ID).Error)
	assert.False(t, got.IsSold)
}

func TestBuyerCancel_WrongBuyer_ReturnsNotFound(t *testing.T) {
	gdb := setupDB(t)
	seller := seedUser(t, gdb, "seller")
	buyer := seedUser(t, gdb, "buyer")
	other := seedUser(t, gdb, "other")
	product := seedProduct(t, gdb, seller.ID, 5.00)

	receipts, err := Checkout(gdb, buyer.ID, []Line{{ProductID: product.ID, Quantity: 1}}, "12 Green St", "card", "")
	require.NoError(t, err)

	require.ErrorIs(t, BuyerCancel(gdb, receipts[0].PurchaseID, other.ID, ""), ErrNotFound)
}

func TestBuyerCancel_Twice_ReturnsConflict(t *testing.T) {
	gdb := setupDB(t)
	seller := seedUser(t, gdb, "seller")
	buyer := seedUser(t, gdb, "buyer")
	product := seedProduct(t, gdb, seller.ID, 5.00)

	receipts, err := Checkout(gdb, buyer.ID, []Line{{ProductID: product.ID, Quantity: 1}}, "12 Green St", "card", "")
	require.NoError(t, err)
	require.NoError(t, BuyerCancel(gdb, receipts[0].PurchaseID, buyer.ID, ""))

	require.ErrorIs(t, BuyerCancel(gdb, receipts[0].PurchaseID, buyer.ID, ""), ErrConflict)
}

func TestBuyerCancel_Delivered_ReturnsInvalidOperation(t *testing.T) {
	gdb := setupDB(t)
	seller := seedUser(t, gdb, "seller")
	buyer := seedUser(t, gdb, "buyer")
	product := seedProduct(t, gdb, seller.ID, 5.00)

	receipts, err := Checkout(gdb, buyer.ID, []Line{{ProductID: product.ID, Quantity: 1}}, "12 Green St", "card", "")
	require.NoError(t, err)
	require.NoError(t, SellerAdvanceStatus(gdb, receipts[0].PurchaseID, seller.ID, domain.StatusDelivered))

	require.ErrorIs(t, BuyerCancel(gdb, receipts[0].PurchaseID, buyer.ID, ""), ErrInvalidOperation)

	// Delivered is terminal, the product stays sold
	var got domain.Product
	require.NoError(t, gdb.First(&got, product.ID).Error)
	assert.True(t, got.IsSold)
}

func TestBuyerCancel_ProductBuyableAgainByThirdParty(t *testing.T) {
	gdb := setupDB(t)
	seller := seedUser(t, gdb, "seller")
	buyer := seedUser(t, gdb, "buyer")
	other := seedUser(t, gdb, "other")
	product := seedProduct(t, gdb, seller.ID, 5.00)

	receipts, err := Checkout(gdb, buyer.ID, []Line{{ProductID: product.ID, Quantity: 1}}, "12 Green St", "card", "")
	require.NoError(t, err)
	require.NoError(t, BuyerCancel(gdb, receipts[0].PurchaseID, buyer.ID, ""))

	again, err := Checkout(gdb, other.ID, []Line{{ProductID: product.ID, Quantity: 1}}, "9 Oak Ave", "paypal", "")
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.NotEqual(t, receipts[0].OrderRef, again[0].OrderRef)
}

func TestSellerAdvanceStatus_HappyPath(t *testing.T) {
	gdb := setupDB(t)
	seller := seedUser(t, gdb, "seller")
	buyer := seedUser(t, gdb, "buyer")
	product := seedProduct(t, gdb, seller.ID, 5.00)

	receipts, err := Checkout(gdb, buyer.ID, []Line{{ProductID: product.ID, Quantity: 1}}, "12 Green St", "card", "")
	require.NoError(t, err)

	for _, status := range []domain.PurchaseStatus{domain.StatusConfirmed, domain.StatusShipped, domain.StatusDelivered} {
		require.NoError(t, SellerAdvanceStatus(gdb, receipts[0].PurchaseID, seller.ID, status))
		var purchase domain.Purchase
		require.NoError(t, gdb.First(&purchase, receipts[0].PurchaseID).Error)
		assert.Equal(t, status, purchase.Status)
	}
}

func TestSellerAdvanceStatus_Errors(t *testing.T) {
	gdb := setupDB(t)
	seller := seedUser(t, gdb, "seller")
	buyer := seedUser(t, gdb, "buyer")
	product := seedProduct(t, gdb, seller.ID, 5.00)

	receipts, err := Checkout(gdb, buyer.ID, []Line{{ProductID: product.ID, Quantity: 1}}, "12 Green St", "card", "")
	require.NoError(t, err)

	require.ErrorIs(t, SellerAdvanceStatus(gdb, receipts[0].PurchaseID, seller.ID, "teleported"), ErrInvalidOperation)
	require.ErrorIs(t, SellerAdvanceStatus(gdb, 999, seller.ID, domain.StatusShipped), ErrNotFound)
	require.ErrorIs(t, SellerAdvanceStatus(gdb, receipts[0].PurchaseID, buyer.ID, domain.StatusShipped), ErrNotAuthorized)
}

func TestCheckout_TwoLines_EndToEndTotals(t *testing.T) {
	gdb := setupDB(t)
	seller := seedUser(t, gdb, "seller")
	buyer := seedUser(t, gdb, "buyer")
	first := seedProduct(t, gdb, seller.ID, 5.00)
	second := seedProduct(t, gdb, seller.ID, 10.00)

	lines := []Line{
		{ProductID: first.ID, Quantity: 2},
		{ProductID: second.ID, Quantity: 1},
	}
	receipts, err := Checkout(gdb, buyer.ID, lines, "12 Green St", "card", "gift wrap please")
	require.NoError(t, err)
	require.Len(t, receipts, 2)
	assert.Equal(t, 10.00, receipts[0].TotalAmount)
	assert.Equal(t, 10.00, receipts[1].TotalAmount)

	var purchases []domain.Purchase
	require.NoError(t, gdb.Order("id asc").Find(&purchases).Error)
	require.Len(t, purchases, 2)
	for _, p := range purchases {
		assert.Equal(t, domain.StatusPending, p.Status)
		assert.Equal(t, "gift wrap please", p.Notes)
		assert.Equal(t, "12 Green St", p.ShippingAddress)
	}
}
