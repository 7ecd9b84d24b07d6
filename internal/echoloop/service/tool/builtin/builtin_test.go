package builtin

import (
	"context"
	"testing"
	"time"

	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, set string) *tool.Registry {
	t.Helper()
	r := tool.NewRegistry()
	require.NoError(t, NewInTreeCatalog().Load(set, r))
	return r
}

func run(r *tool.Registry, name string, args map[string]interface{}) entity.ToolExecutionResult {
	return r.Execute(context.Background(), entity.NewToolCall(name, args))
}

func TestCatalog(t *testing.T) {
	c := NewInTreeCatalog()
	names := make([]string, 0)
	for _, s := range c.List() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{Ecommerce, Events, Productivity, TreasureHunt}, names)
}

func TestTreasureHunt_Hints(t *testing.T) {
	r := load(t, TreasureHunt)
	assert.Equal(t, []string{"give_hint", "guess_location"}, r.Names())

	res := run(r, "give_hint", nil)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, treasureHints[0], res.Result.(map[string]interface{})["hint"])

	res = run(r, "give_hint", map[string]interface{}{"hint_total": 2})
	assert.Equal(t, treasureHints[2], res.Result.(map[string]interface{})["hint"])

	res = run(r, "give_hint", map[string]interface{}{"hint_total": 7})
	assert.Equal(t, "No more hints available.", res.Result.(map[string]interface{})["hint"])

	res = run(r, "give_hint", map[string]interface{}{"hint_total": -1})
	assert.False(t, res.Success)
	assert.Equal(t, entity.ErrorKindValidation, res.ErrorKind)
}

func TestTreasureHunt_Guess(t *testing.T) {
	r := load(t, TreasureHunt)

	res := run(r, "guess_location", map[string]interface{}{"address": "123 Lenora St", "city": "Seattle", "state": "WA"})
	require.True(t, res.Success)
	assert.Equal(t, "Correct!", res.Result.(map[string]interface{})["status"])

	res = run(r, "guess_location", map[string]interface{}{"city": "Portland"})
	assert.Equal(t, "Incorrect", res.Result.(map[string]interface{})["status"])
}

func TestProductivity_SetReminder(t *testing.T) {
	fixed := time.Unix(1700000000, 0)
	r := tool.NewRegistry()
	r.MustRegister(setReminderTool(func() time.Time { return fixed }))

	res := run(r, "set_reminder", map[string]interface{}{"message": "call mom", "time": "3pm"})
	require.True(t, res.Success, res.Error)
	out := res.Result.(map[string]interface{})
	assert.Equal(t, "Reminder set: 'call mom' at 3pm", out["message"])
	assert.Equal(t, "rem_1700000000", out["reminder_id"])

	res = run(r, "set_reminder", map[string]interface{}{"message": "", "time": "3pm"})
	assert.Equal(t, entity.ErrorKindValidation, res.ErrorKind)

	res = run(r, "set_reminder", map[string]interface{}{"message": "x", "time": "  "})
	assert.Equal(t, entity.ErrorKindValidation, res.ErrorKind)
}

func TestEcommerce_Orders(t *testing.T) {
	r := load(t, Ecommerce)

	res := run(r, "get_order", map[string]interface{}{"order_id": "102"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "delivered", res.Result.(order).Status)

	res = run(r, "get_order", map[string]interface{}{"order_id": "999"})
	assert.Equal(t, "Order 999 not found.", res.Error)
	assert.Equal(t, entity.ErrorKindExecution, res.ErrorKind)

	res = run(r, "list_orders", map[string]interface{}{"email_address": "matt.murdock@nelsonmurdock.com"})
	require.True(t, res.Success, res.Error)
	orders := res.Result.(map[string]interface{})["orders"].([]order)
	require.Len(t, orders, 3)
	assert.Equal(t, []string{"101", "102", "103"}, []string{orders[0].ID, orders[1].ID, orders[2].ID})

	res = run(r, "list_orders", map[string]interface{}{"email_address": "nobody@example.com"})
	assert.Equal(t, "No orders for customer nobody@example.com found.", res.Error)

	res = run(r, "list_orders", map[string]interface{}{"email_address": "not an email"})
	assert.Equal(t, entity.ErrorKindValidation, res.ErrorKind)
}

func TestEcommerce_Cart(t *testing.T) {
	r := load(t, Ecommerce)

	res := run(r, "add_to_cart", map[string]interface{}{"product_id": "SKU1"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 1, res.Result.(map[string]interface{})["quantity"])

	res = run(r, "add_to_cart", map[string]interface{}{"product_id": "SKU1", "quantity": 0})
	assert.Equal(t, entity.ErrorKindValidation, res.ErrorKind)
}

func TestEcommerce_SearchProducts(t *testing.T) {
	r := load(t, Ecommerce)

	res := run(r, "search_products", map[string]interface{}{"query": "shoes"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "Found 10 products matching 'shoes'", res.Result.(map[string]interface{})["products"])

	res = run(r, "search_products", map[string]interface{}{"query": "shoes", "category": "sports", "max_price": 50})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "Found 10 products matching 'shoes' (category: sports, under $50)", res.Result.(map[string]interface{})["products"])
}

func TestEvents(t *testing.T) {
	r := load(t, Events)

	res := run(r, "find_events", nil)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "Found 5 events matching your criteria", res.Result.(map[string]interface{})["events"])

	res = run(r, "find_events", map[string]interface{}{"location": "Austin", "event_type": "concert"})
	assert.Equal(t, "Found 5 events in Austin type: concert", res.Result.(map[string]interface{})["events"])

	res = run(r, "cancel_event", map[string]interface{}{"event_id": "EVT1"})
	assert.Equal(t, "No reason provided", res.Result.(map[string]interface{})["reason"])

	res = run(r, "create_event", map[string]interface{}{"title": "Launch"})
	assert.Equal(t, entity.ErrorKindValidation, res.ErrorKind)
}
