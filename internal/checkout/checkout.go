package checkout

import (
	"fmt"

	"ecofinds/internal/domain"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Line is one requested purchase: a product and a quantity.
type Line struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,gt=0"`
}

// Receipt describes one purchase created by a successful checkout.
type Receipt struct {
	PurchaseID  uint    `json:"purchase_id"`
	OrderRef    string  `json:"order_ref"`
	ProductID   uint    `json:"product_id"`
	Quantity    int     `json:"quantity"`
	TotalAmount float64 `json:"total_amount"`
}

// Checkout converts the buyer's purchase lines into purchase records
// inside a single transaction. Per line, in order: the product must
// exist and not be soft-deleted, the buyer must not be the seller, and
// the product must not already be sold. The sold flag is claimed with a
// conditional update so two concurrent checkouts of the same product
// cannot both succeed. On the first failing line everything rolls back.
//
// After all lines succeed the buyer's entire cart is cleared, not just
// the purchased lines; this mirrors the long-standing behavior the rest
// of the system depends on.
func Checkout(db *gorm.DB, buyerID uint, lines []Line, shippingAddress, paymentMethod, notes string) ([]Receipt, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: no purchase lines", ErrInvalidOperation)
	}
	if shippingAddress == "" {
		return nil, fmt.Errorf("%w: shipping address is required", ErrInvalidOperation)
	}
	if paymentMethod == "" {
		return nil, fmt.Errorf("%w: payment method is required", ErrInvalidOperation)
	}
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidOperation)
		}
	}

	receipts := make([]Receipt, 0, len(lines))
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, line := range lines {
			var product domain.Product
			// Soft-deleted rows are excluded by the DeletedAt clause
			if err := tx.First(&product, line.ProductID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return fmt.Errorf("%w: product %d", ErrNotFound, line.ProductID)
				}
				return err
			}
			if product.SellerID == buyerID {
				return fmt.Errorf("%w: cannot purchase own product", ErrInvalidOperation)
			}

			// Claim the inventory atomically: zero affected rows means a
			// concurrent checkout (or the seller) got there first.
			res := tx.Model(&domain.Product{}).
				Where("id = ? AND is_sold = ?", product.ID, false).
				Update("is_sold", true)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: product %d already sold", ErrConflict, product.ID)
			}

			// Price is taken from the row read in this transaction
			total := product.Price * float64(line.Quantity)
			purchase := domain.Purchase{
				OrderRef:        uuid.NewString(),
				BuyerID:         buyerID,
				SellerID:        product.SellerID,
				ProductID:       product.ID,
				Quantity:        line.Quantity,
				TotalAmount:     total,
				ShippingAddress: shippingAddress,
				PaymentMethod:   paymentMethod,
				Status:          domain.StatusPending,
				Notes:           notes,
			}
			if err := tx.Create(&purchase).Error; err != nil {
				return err
			}

			receipts = append(receipts, Receipt{
				PurchaseID:  purchase.ID,
				OrderRef:    purchase.OrderRef,
				ProductID:   product.ID,
				Quantity:    line.Quantity,
				TotalAmount: total,
			})
		}

		// Full cart clear, all rows of the buyer
		if err := tx.Where("user_id = ?", buyerID).Delete(&domain.CartItem{}).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"buyer_id": buyerID,
			"lines":    len(lines),
			"error":    err.Error(),
		}).Warn("Checkout failed")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"buyer_id":  buyerID,
		"purchases": len(receipts),
	}).Info("Checkout completed")
	return receipts, nil
}

// BuyerCancel cancels a purchase on behalf of its buyer and restores
// the product's availability in the same transaction. Delivered
// purchases are terminal; cancelling twice is a conflict.
func BuyerCancel(db *gorm.DB, purchaseID, buyerID uint, reason string) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		var purchase domain.Purchase
		if err := tx.Where("id = ? AND buyer_id = ?", purchaseID, buyerID).First(&purchase).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: purchase %d", ErrNotFound, purchaseID)
			}
			return err
		}
		if purchase.Status == domain.StatusCancelled {
			return fmt.Errorf("%w: purchase already cancelled", ErrConflict)
		}
		if purchase.Status == domain.StatusDelivered {
			return fmt.Errorf("%w: cannot cancel delivered purchase", ErrInvalidOperation)
		}

		// Only status and notes are mutable on a purchase
		if err := tx.Model(&purchase).Updates(map[string]any{
			"status": domain.StatusCancelled,
			"notes":  reason,
		}).Error; err != nil {
			return err
		}

		// Product becomes purchasable again
		if err := tx.Model(&domain.Product{}).
			Where("id = ?", purchase.ProductID).
			Update("is_sold", false).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"purchase_id": purchaseID,
			"buyer_id":    buyerID,
			"error":       err.Error(),
		}).Warn("Cancellation failed")
		return err
	}

	logrus.WithFields(logrus.Fields{
		"purchase_id": purchaseID,
		"buyer_id":    buyerID,
	}).Info("Purchase cancelled")
	return nil
}

// SellerAdvanceStatus moves a purchase to a new fulfillment status on
// behalf of its seller. Only enum membership is checked; the
// predecessor graph is not enforced.
func SellerAdvanceStatus(db *gorm.DB, purchaseID, sellerID uint, status domain.PurchaseStatus) error {
	if !domain.IsValidStatus(status) {
		return fmt.Errorf("%w: invalid status %q", ErrInvalidOperation, status)
	}

	var purchase domain.Purchase
	if err := db.First(&purchase, purchaseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("%w: purchase %d", ErrNotFound, purchaseID)
		}
		return err
	}
	if purchase.SellerID != sellerID {
		return fmt.Errorf("%w: not the seller of purchase %d", ErrNotAuthorized, purchaseID)
	}

	if err := db.Model(&purchase).Update("status", status).Error; err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"purchase_id": purchaseID,
		"seller_id":   sellerID,
		"status":      status,
	}).Info("Purchase status updated")
	return nil
}
