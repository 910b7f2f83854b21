package vm

// sparseSet is a set of program counters with O(1) insert, lookup and clear.
// Iteration follows insertion order.
type sparseSet struct {
	sparse []uint32
	dense  []uint32
}

func newSparseSet(capacity int) *sparseSet {
	return &sparseSet{
		sparse: make([]uint32, capacity),
		dense:  make([]uint32, 0, capacity),
	}
}

func (s *sparseSet) contains(v uint32) bool {
	i := s.sparse[v]
	return int(i) < len(s.dense) && s.dense[i] == v
}

// insert adds v and reports whether it was absent.
func (s *sparseSet) insert(v uint32) bool {
	if s.contains(v) {
		return false
	}
	s.sparse[v] = uint32(len(s.dense))
	s.dense = append(s.dense, v)
	return true
}

func (s *sparseSet) len() int {
	return len(s.dense)
}

func (s *sparseSet) clear() {
	s.dense = s.dense[:0]
}
