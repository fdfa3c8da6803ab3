package shm

import "dolphinmem/dolphin"

// Region is a bounds-checked view over memory shared with the emulator.
type Region struct {
	data []byte
}

func NewRegion(data []byte) *Region {
	return &Region{data}
}

func (m *Region) Read(offset uint32, size int) ([]byte, error) {
	if err := dolphin.CheckRange(offset, size, len(m.data)); err != nil {
		return nil, err
	}
	b := make([]byte, size)
	copy(b, m.data[offset:])
	return b, nil
}

func (m *Region) Write(offset uint32, data []byte) error {
	if err := dolphin.CheckRange(offset, len(data), len(m.data)); err != nil {
		return err
	}
	copy(m.data[offset:], data)
	return nil
}

func (m *Region) Size() int {
	return len(m.data)
}

func (m *Region) Bytes() []byte {
	return m.data
}
