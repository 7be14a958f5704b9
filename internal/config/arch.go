package config

// ArchConfig names the model class and its construction arguments.
type ArchConfig struct {
	Type string   `json:"type" yaml:"type"`
	Args ArchArgs `json:"args" yaml:"args"`
}

// ArchArgs holds the seq2seq architecture dimensions.
type ArchArgs struct {
	// Dimension of a single pen-stroke input point (x, y, pen-up).
	EncoderInputDim int `json:"encoder_input_dim" yaml:"encoder_input_dim"`

	// Hidden state size of the encoder and decoder RNNs.
	HiddenDim int `json:"hidden_dim" yaml:"hidden_dim"`

	// Number of stacked RNN layers.
	NumLayers int `json:"num_layers" yaml:"num_layers"`

	// Dropout probability between stacked layers, in [0, 1].
	Dropout float64 `json:"dropout" yaml:"dropout"`

	// Size of the learned character embedding fed to the decoder.
	EmbedCharDim int `json:"embed_char_dim" yaml:"embed_char_dim"`

	// Size of the output character vocabulary.
	NumChars int `json:"num_chars" yaml:"num_chars"`

	// Probability of feeding the ground-truth token (rather than the
	// model's own prior prediction) as decoder input, in [0, 1].
	TeacherForcingRatio float64 `json:"teacher_forcing_ratio" yaml:"teacher_forcing_ratio"`
}
