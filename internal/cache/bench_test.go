package cache

import (
	"strconv"
	"testing"
)

func BenchmarkRecencyMapGet(b *testing.B) {
	m := NewRecencyMap[string, int]()
	for i := 0; i < 100; i++ {
		m.Put(strconv.Itoa(i), i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Get("50")
	}
}

func BenchmarkRecencyMapPut(b *testing.B) {
	m := NewRecencyMap[int, int]()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Put(i%100, i)
	}
}

func BenchmarkRecencyMapBounded(b *testing.B) {
	m := NewBounded[int, int](256, nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Put(i, i)
	}
}

func BenchmarkRecencyMapBackward(b *testing.B) {
	m := NewRecencyMap[int, int]()
	for i := 0; i < 1000; i++ {
		m.Put(i, i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for range m.Backward() {
		}
	}
}
