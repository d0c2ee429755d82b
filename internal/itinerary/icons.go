package itinerary

// DefaultIcon is used for missing or unrecognized item types.
const DefaultIcon = "\U0001F380"

// Icon returns the card icon for an item type.
func Icon(t ItemType) string {
	switch t {
	case TypeFlight:
		return "\u2728\u2708\uFE0F"
	case TypeHotel:
		return "\U0001F31F"
	case TypeRestaurant:
		return "\U0001F338"
	case TypeActivity:
		return "\U0001F380"
	case TypeTransport:
		return "\U0001F496"
	case TypeShow:
		return "\u2728"
	default:
		return DefaultIcon
	}
}

// Known reports whether t is one of the recognized item types.
func (t ItemType) Known() bool {
	switch t {
	case TypeFlight, TypeHotel, TypeRestaurant, TypeActivity, TypeTransport, TypeShow:
		return true
	}
	return false
}
