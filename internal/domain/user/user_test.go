package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompleteAddress(t *testing.T) {
	u := User{
		Phone:         "081234567890",
		AddressDetail: "Jl. Merdeka No. 1",
		City:          "Bandung",
		Province:      "Jawa Barat",
	}
	assert.True(t, u.CompleteAddress())

	missingPhone := u
	missingPhone.Phone = ""
	assert.False(t, missingPhone.CompleteAddress())

	missingCity := u
	missingCity.City = ""
	assert.False(t, missingCity.CompleteAddress())
}

func TestFullAddress(t *testing.T) {
	u := User{
		AddressDetail: "Jl. Merdeka No. 1",
		District:      "Sukajadi",
		City:          "Bandung",
		Province:      "Jawa Barat",
		PostalCode:    "40162",
	}
	assert.Equal(t, "Jl. Merdeka No. 1, Sukajadi, Bandung, Jawa Barat 40162", u.FullAddress())

	sparse := User{AddressDetail: "Jl. Merdeka No. 1", City: "Bandung"}
	assert.Equal(t, "Jl. Merdeka No. 1, Bandung", sparse.FullAddress())
}

func TestIsStaff(t *testing.T) {
	assert.True(t, (&User{Role: RoleAdmin}).IsStaff())
	assert.True(t, (&User{Role: RoleSubAdmin}).IsStaff())
	assert.False(t, (&User{Role: RoleCustomer}).IsStaff())
}
