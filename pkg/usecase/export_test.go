package usecase

// ImagePath is exported for testing
func (r *RemoteStore) ImagePath(userID string) string {
	return r.imagePath(userID)
}
