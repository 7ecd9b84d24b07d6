package builtin

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/kiosk404/echoloop/internal/echoloop/service/tool"
	"github.com/kiosk404/echoloop/pkg/utils/json"
)

const Ecommerce = "ecommerce"

//go:embed data/customer_order_data.json
var customerOrderData []byte

type orderItem struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

type order struct {
	ID         string      `json:"id"`
	Email      string      `json:"email"`
	Status     string      `json:"status"`
	OrderDate  string      `json:"order_date"`
	LastUpdate string      `json:"last_update"`
	Items      []orderItem `json:"items"`
}

type orderBook struct {
	Orders []order `json:"orders"`
}

func loadOrders() ([]order, error) {
	var book orderBook
	if err := json.Unmarshal(customerOrderData, &book); err != nil {
		return nil, fmt.Errorf("Data file not found.")
	}
	return book.Orders, nil
}

// EcommerceToolSet covers order lookup, cart, search, tracking and returns.
func EcommerceToolSet() tool.ToolSet {
	return tool.ToolSet{
		Name:        Ecommerce,
		Description: "E-commerce tools for orders, products, cart and returns",
		Tools: func() []*tool.Tool {
			return []*tool.Tool{
				getOrderTool(),
				listOrdersTool(),
				addToCartTool(),
				searchProductsTool(),
				trackOrderTool(),
				returnItemTool(),
			}
		},
	}
}

func getOrderTool() *tool.Tool {
	return tool.MustNew(tool.Definition{
		Name:        "get_order",
		Description: "Get the details of an order by its ID.",
		Category:    Ecommerce,
		Parameters: []tool.ParameterDef{
			{Name: "order_id", Type: tool.TypeString, Description: "Order ID", Required: true, NotBlank: true},
		},
	}, func(_ context.Context, args tool.Args) (interface{}, error) {
		orders, err := loadOrders()
		if err != nil {
			return nil, err
		}
		id := args.String("order_id")
		for _, o := range orders {
			if o.ID == id {
				return o, nil
			}
		}
		return nil, fmt.Errorf("Order %s not found.", id)
	})
}

func listOrdersTool() *tool.Tool {
	return tool.MustNew(tool.Definition{
		Name:        "list_orders",
		Description: "List all orders for a customer email address, oldest first.",
		Category:    Ecommerce,
		Parameters: []tool.ParameterDef{
			{Name: "email_address", Type: tool.TypeString, Description: "Customer email address", Required: true, Format: "email"},
		},
	}, func(_ context.Context, args tool.Args) (interface{}, error) {
		orders, err := loadOrders()
		if err != nil {
			return nil, err
		}
		email := args.String("email_address")
		matched := make([]order, 0)
		for _, o := range orders {
			if strings.EqualFold(o.Email, email) {
				matched = append(matched, o)
			}
		}
		if len(matched) == 0 {
			return nil, fmt.Errorf("No orders for customer %s found.", email)
		}
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].OrderDate < matched[j].OrderDate })
		return map[string]interface{}{"orders": matched}, nil
	})
}

func addToCartTool() *tool.Tool {
	return tool.MustNew(tool.Definition{
		Name:        "add_to_cart",
		Description: "Add a product to the shopping cart.",
		Category:    Ecommerce,
		Parameters: []tool.ParameterDef{
			{Name: "product_id", Type: tool.TypeString, Description: "Product ID", Required: true},
			{Name: "quantity", Type: tool.TypeInteger, Description: "Quantity to add", Default: 1, Minimum: tool.Float64(1)},
		},
	}, func(_ context.Context, args tool.Args) (interface{}, error) {
		return map[string]interface{}{
			"cart_total": 2,
			"added":      args.String("product_id"),
			"quantity":   args.Int("quantity"),
			"status":     "success",
		}, nil
	})
}

func searchProductsTool() *tool.Tool {
	return tool.MustNew(tool.Definition{
		Name:        "search_products",
		Description: "Search the product catalog, optionally filtered by category and maximum price.",
		Category:    Ecommerce,
		Parameters: []tool.ParameterDef{
			{Name: "query", Type: tool.TypeString, Description: "Search query", Required: true},
			{Name: "category", Type: tool.TypeString, Description: "Product category"},
			{Name: "max_price", Type: tool.TypeNumber, Description: "Maximum price", Minimum: tool.Float64(0)},
		},
	}, func(_ context.Context, args tool.Args) (interface{}, error) {
		query := args.String("query")
		var filters []string
		var category, maxPrice interface{}
		if c := args.String("category"); c != "" {
			filters = append(filters, "category: "+c)
			category = c
		}
		if p, ok := args.Float("max_price"); ok {
			filters = append(filters, fmt.Sprintf("under $%v", p))
			maxPrice = p
		}
		filterStr := ""
		if len(filters) > 0 {
			filterStr = " (" + strings.Join(filters, ", ") + ")"
		}
		return map[string]interface{}{
			"products": fmt.Sprintf("Found 10 products matching '%s'%s", query, filterStr),
			"count":    10,
			"query":    query,
			"filters": map[string]interface{}{
				"category":  category,
				"max_price": maxPrice,
			},
		}, nil
	})
}

func trackOrderTool() *tool.Tool {
	return tool.MustNew(tool.Definition{
		Name:        "track_order",
		Description: "Track the shipping status of an order.",
		Category:    Ecommerce,
		Parameters: []tool.ParameterDef{
			{Name: "order_id", Type: tool.TypeString, Description: "Order ID", Required: true},
		},
	}, func(_ context.Context, args tool.Args) (interface{}, error) {
		id := args.String("order_id")
		return map[string]interface{}{
			"order_id":        id,
			"status":          "In transit",
			"delivery_date":   "Tomorrow",
			"tracking_number": "TRK" + id,
		}, nil
	})
}

func returnItemTool() *tool.Tool {
	return tool.MustNew(tool.Definition{
		Name:        "return_item",
		Description: "Return an item from an order for refund or exchange.",
		Category:    Ecommerce,
		Parameters: []tool.ParameterDef{
			{Name: "order_id", Type: tool.TypeString, Description: "Order ID", Required: true},
			{Name: "item_id", Type: tool.TypeString, Description: "Item ID to return", Required: true},
			{Name: "reason", Type: tool.TypeString, Description: "Return reason", Required: true},
		},
	}, func(_ context.Context, args tool.Args) (interface{}, error) {
		return map[string]interface{}{
			"return_id":     "RET456",
			"status":        "processing",
			"refund_amount": "$99.99",
			"order_id":      args.String("order_id"),
			"item_id":       args.String("item_id"),
			"reason":        args.String("reason"),
		}, nil
	})
}
