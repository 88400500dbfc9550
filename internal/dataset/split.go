package dataset

import "math/rand"

// Split partitions t into train and test tables. testRatio of the rows
// (rounded down) go to the test set. The permutation is driven by seed
// so a given seed always produces the same split.
func Split(t *Table, testRatio float64, seed int64) (train, test *Table) {
	n := t.Len()
	rnd := rand.New(rand.NewSource(seed))
	indices := rnd.Perm(n)
	nTest := int(float64(n) * testRatio)

	train = &Table{}
	test = &Table{}
	for i, idx := range indices {
		if i < nTest {
			test.Features = append(test.Features, t.Features[idx])
			test.Labels = append(test.Labels, t.Labels[idx])
		} else {
			train.Features = append(train.Features, t.Features[idx])
			train.Labels = append(train.Labels, t.Labels[idx])
		}
	}
	return train, test
}
