package errors

import (
	"testing"
)

func TestValidateItemName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid extension", "VK_KHR_swapchain", false},
		{"valid upper", "VK_EXT_MESH_SHADER", false},
		{"valid digits", "VK_KHR_16bit_storage", false},

		{"empty", "", true},
		{"too long", "V" + string(make([]byte, 300)), true},
		{"leading digit", "1VK_KHR_x", true},
		{"dash", "VK-KHR-x", true},
		{"path traversal", "../etc", true},
		{"space", "VK_KHR x", true},
		{"null byte", "VK\x00KHR", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateItemName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateItemName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateVersionName(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"VK_VERSION_1_0", false},
		{"VKSC_VERSION_1_0", false},
		{"VK_KHR_swapchain", true},
		{"", true},
		{"VK_VERSION_1.0", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateVersionName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateVersionName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"GeneratedExtensionHeader.hpp", false},
		{"out.hpp", false},
		{"", true},
		{"dir/out.hpp", true},
		{"dir\\out.hpp", true},
		{".hidden", true},
		{"out\x01.hpp", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateFilename(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFilename(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && GetCode(err) != ErrCodeInvalidPath {
				t.Errorf("GetCode = %v, want %v", GetCode(err), ErrCodeInvalidPath)
			}
		})
	}
}
