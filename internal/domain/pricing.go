package domain

// CartTotal is Σ price*quantity over the cart lines.
func CartTotal(items []CartItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// OrderSubtotal is Σ price*quantity over the order lines.
func OrderSubtotal(items []OrderItem) float64 {
	var subtotal float64
	for _, item := range items {
		subtotal += item.Price * float64(item.Quantity)
	}
	return subtotal
}

// NewPricing derives subtotal and total; total = subtotal + shipping - discount.
func NewPricing(items []OrderItem, shipping, discount float64) Pricing {
	subtotal := OrderSubtotal(items)
	return Pricing{
		Subtotal: subtotal,
		Shipping: shipping,
		Discount: discount,
		Total:    subtotal + shipping - discount,
	}
}
