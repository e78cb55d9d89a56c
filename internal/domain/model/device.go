package model

// Device is a CRM device registered under a contact. The serial number is
// generated by this service; the product id comes from configuration.
type Device struct {
	ID           string `json:"id"`
	SerialNumber string `json:"serial_number"`
	ElectronicID string `json:"electronic_id,omitempty"`
	ContactID    string `json:"contact_id"`
	ProductID    string `json:"product_id"`
}

// DeviceRef is the device reference shape the CRM expects when adding or
// enabling a device on a subscription or service.
type DeviceRef struct {
	DeviceID string `json:"device_id"`
	Action   string `json:"action,omitempty"`
}

// AllowedDevice is an entry of a subscription's allowed-devices listing.
type AllowedDevice struct {
	Device struct {
		ID string `json:"id"`
	} `json:"device"`
}

// AllowedDevicePage is the CRM listing envelope for allowed devices.
type AllowedDevicePage struct {
	Content []AllowedDevice `json:"content"`
}

// SubscriptionDevicePage carries the subscription-devices listing
// including custom fields when requested.
type SubscriptionDevicePage struct {
	Content      []map[string]any `json:"content"`
	CustomFields map[string]any   `json:"custom_fields,omitempty"`
}

// DeviceAssignment is the outcome of the device enablement chain: the
// devices now attached to the service plus the custom-fields fetch that
// assignment triggers.
type DeviceAssignment struct {
	DeviceIDs    []DeviceRef
	CustomFields map[string]any
}
