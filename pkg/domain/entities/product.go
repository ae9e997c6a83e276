package entities

// Product is a spirit product that batches are distilled for
type Product struct {
	ProductID         string   `json:"product_id" yaml:"product_id"`
	SKU               string   `json:"sku" yaml:"sku"`
	DisplayName       string   `json:"display_name" yaml:"display_name"`
	Category          string   `json:"category" yaml:"category"`
	HeartsABVTarget   Quantity `json:"hearts_run_abv_target_percent" yaml:"hearts_run_abv_target_percent"`
	BottlingABVTarget Quantity `json:"bottling_abv_target_percent" yaml:"bottling_abv_target_percent"`
	DefaultStill      string   `json:"default_still,omitempty" yaml:"default_still,omitempty"`
	Status            string   `json:"status" yaml:"status"`
}
