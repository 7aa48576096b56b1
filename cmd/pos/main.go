// Command pos rings up a single sale against a running API:
//
//	pos --api http://localhost:8080 --email manager@drugwell.com --password manager123 \
//	    --item 3:2 --item 7 --customer "Jane Doe" --payment card
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"pharmacy_backend/internal/pos"
	"pharmacy_backend/pkg/utils"
)

type cartItem struct {
	productID int64
	quantity  int
}

func parseItem(s string) (cartItem, error) {
	idPart, qtyPart, hasQty := strings.Cut(s, ":")
	id, err := utils.ToWholeNumber(idPart)
	if err != nil || id <= 0 {
		return cartItem{}, fmt.Errorf("invalid product id in %q", s)
	}
	qty := 1
	if hasQty {
		qty, err = utils.ToWholeNumber(qtyPart)
		if err != nil || qty < 1 {
			return cartItem{}, fmt.Errorf("invalid quantity in %q", s)
		}
	}
	return cartItem{productID: int64(id), quantity: qty}, nil
}

func main() {
	apiURL := pflag.String("api", utils.Getenv("POS_API_URL", "http://localhost:8080"), "API base URL")
	email := pflag.String("email", utils.Getenv("POS_EMAIL", ""), "login email")
	password := pflag.String("password", utils.Getenv("POS_PASSWORD", ""), "login password")
	items := pflag.StringArray("item", nil, "product to sell as id[:quantity]; repeatable")
	customer := pflag.String("customer", "", "customer name (default \""+pos.DefaultCustomer+"\")")
	cashier := pflag.String("cashier", "", "cashier name")
	payment := pflag.String("payment", "cash", "cash, card, insurance or digital")
	nodeID := pflag.Int64("node", int64(utils.GetenvInt("NODE_ID", 1)), "till node id for transaction ids (0-1023)")
	pflag.Parse()

	utils.InitLogger(utils.LoggerOptions{Level: utils.Getenv("LOG_LEVEL", "info")})

	if err := run(*apiURL, *email, *password, *items, *customer, *cashier, *payment, *nodeID); err != nil {
		utils.LogError(err, "Sale failed")
		os.Exit(1)
	}
}

func run(apiURL, email, password string, rawItems []string, customer, cashier, payment string, nodeID int64) error {
	if len(rawItems) == 0 {
		return fmt.Errorf("at least one --item is required")
	}
	cart := make([]cartItem, 0, len(rawItems))
	for _, raw := range rawItems {
		it, err := parseItem(raw)
		if err != nil {
			return err
		}
		cart = append(cart, it)
	}

	ids, err := pos.NewIDGenerator(nodeID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	token, err := pos.Login(ctx, apiURL, email, password)
	if err != nil {
		return err
	}
	catalog := pos.NewCatalog(apiURL, token)
	session := pos.NewSession(pos.NewHTTPRecorder(apiURL, token), ids)

	for _, it := range cart {
		product, err := catalog.Product(ctx, it.productID)
		if err != nil {
			return err
		}
		added := 0
		for added < it.quantity && session.AddLine(*product, 1) {
			added++
		}
		if added < it.quantity {
			utils.LogWarn("Quantity capped at available stock", map[string]interface{}{
				"product_id": product.ID, "requested": it.quantity, "added": added, "stock": product.Stock,
			})
		}
	}

	txn, err := session.Checkout(ctx, customer, cashier, payment)
	if err != nil {
		return err
	}
	utils.LogInfo("Sale recorded", map[string]interface{}{
		"transaction_id": txn.TransactionID,
		"total":          txn.TotalAmount.StringFixed(2),
		"items":          txn.ItemCount(),
	})
	return nil
}
