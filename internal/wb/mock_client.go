package wb

import (
	"fmt"
	"math/rand"
	"time"
)

var (
	mockBrands     = []string{"BrandAlpha", "BrandBeta", "BrandGamma"}
	mockCategories = []string{"Apparel", "Shoes", "Accessories", "Electronics", "Home"}
	mockWarehouses = []StockItem{
		{WarehouseID: 507, WarehouseName: "Koledino"},
		{WarehouseID: 117986, WarehouseName: "Podolsk"},
		{WarehouseID: 120762, WarehouseName: "Kazan"},
	}
)

// MockClient returns generated data so the repricer can be developed and
// demoed without a real WB API key. The generator is seeded, so repeated
// runs of one process see a stable catalog.
type MockClient struct {
	rng      *rand.Rand
	products int
}

var _ Client = (*MockClient)(nil)

// NewMockClient creates a mock client with a 50-product catalog.
func NewMockClient() *MockClient {
	return &MockClient{rng: rand.New(rand.NewSource(1)), products: 50}
}

// GetCards implements Client.
func (m *MockClient) GetCards() ([]Card, error) {
	cards := make([]Card, 0, m.products)
	for i := 1; i <= m.products; i++ {
		cards = append(cards, Card{
			NmID:        int64(100000 + i),
			VendorCode:  fmt.Sprintf("ART-%04d", i),
			Brand:       mockBrands[m.rng.Intn(len(mockBrands))],
			SubjectName: mockCategories[m.rng.Intn(len(mockCategories))],
			Title:       fmt.Sprintf("Product %d (mock article)", i),
			Photos:      []Photo{{Big: fmt.Sprintf("https://placeholder.co/400?text=Product%d", i)}},
			Sizes:       []CardSize{{Skus: []string{fmt.Sprintf("20000000%04d", i)}}},
		})
	}
	return cards, nil
}

// GetGoods implements Client.
func (m *MockClient) GetGoods() ([]Good, error) {
	goods := make([]Good, 0, m.products)
	for i := 1; i <= m.products; i++ {
		price := float64(500 + m.rng.Intn(4500))
		discount := float64(5 + m.rng.Intn(25))
		goods = append(goods, Good{
			NmID: int64(100000 + i),
			Sizes: []GoodSize{{
				Price:           price,
				DiscountedPrice: price * (1 - discount/100),
			}},
		})
	}
	return goods, nil
}

// GetStocks implements Client.
func (m *MockClient) GetStocks(dateFrom time.Time) ([]StockItem, error) {
	stocks := make([]StockItem, 0, m.products)
	for i := 1; i <= m.products; i++ {
		warehouse := mockWarehouses[m.rng.Intn(len(mockWarehouses))]
		stocks = append(stocks, StockItem{
			NmID:          int64(100000 + i),
			WarehouseID:   warehouse.WarehouseID,
			WarehouseName: warehouse.WarehouseName,
			Quantity:      m.rng.Intn(500),
		})
	}
	return stocks, nil
}

// GetOrders implements Client.
func (m *MockClient) GetOrders(dateFrom time.Time) ([]Order, error) {
	var orders []Order
	for day := 0; day < 7; day++ {
		date := dateFrom.AddDate(0, 0, day)
		for i := 0; i < 30; i++ {
			orders = append(orders, Order{
				NmID:       int64(100000 + 1 + m.rng.Intn(m.products)),
				Date:       date.Format(time.RFC3339),
				TotalPrice: float64(500 + m.rng.Intn(4500)),
				Spp:        float64(5 + m.rng.Intn(20)),
				IsCancel:   m.rng.Float64() < 0.1,
			})
		}
	}
	return orders, nil
}

// GetSales implements Client.
func (m *MockClient) GetSales(dateFrom time.Time) ([]Sale, error) {
	var sales []Sale
	for day := 0; day < 7; day++ {
		date := dateFrom.AddDate(0, 0, day)
		for i := 0; i < 5; i++ {
			sales = append(sales, Sale{
				NmID:     int64(100000 + 1 + m.rng.Intn(m.products)),
				Date:     date.Format(time.RFC3339),
				IsReturn: m.rng.Float64() < 0.3,
			})
		}
	}
	return sales, nil
}
